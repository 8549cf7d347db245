package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/pitfidev/lender-strategy/internal/logger"
	"github.com/pitfidev/lender-strategy/internal/rates"
	"github.com/pitfidev/lender-strategy/internal/state"
	"github.com/pitfidev/lender-strategy/internal/strategy"
	"github.com/pitfidev/lender-strategy/internal/utils"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer handles HTTP requests for strategy data visualization
type WebServer struct {
	router    *mux.Router
	port      string
	strategy  *strategy.Strategy
	projector *rates.Projector
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, strat *strategy.Strategy, projector *rates.Projector) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:    mux.NewRouter(),
		port:      port,
		strategy:  strat,
		projector: projector,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/reports", ws.handleGetReports).Methods("GET")
	api.HandleFunc("/reports/latest", ws.handleGetLatestReport).Methods("GET")
	api.HandleFunc("/apr", ws.handleGetProjectedAPR).Methods("GET")
	api.HandleFunc("/limits", ws.handleGetLimits).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hasErrors := false

	dbHealthy := true
	if state.DB != nil {
		if err := state.TestDBConnection(); err != nil {
			dbHealthy = false
			hasErrors = true
		}
	}

	var cycleInfo map[string]interface{}
	if state.DB != nil {
		if latest, err := state.GetLatestReport(); err == nil {
			cycleInfo = map[string]interface{}{
				"current_cycle":     latest.CycleNumber,
				"last_cycle_time":   latest.Timestamp,
				"last_cycle_status": latest.Success,
			}
			if !latest.Success {
				hasErrors = true
			}
		}
	}
	if cycleInfo == nil {
		cycleInfo = map[string]interface{}{
			"current_cycle":     0,
			"last_cycle_time":   nil,
			"last_cycle_status": "unknown",
		}
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if hasErrors {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "lender-strategy",
			"version": "1.0.0",
		},
		"strategy_status": map[string]interface{}{
			"asset":             ws.strategy.Asset().Hex(),
			"receipt_token":     ws.strategy.ReceiptToken().Hex(),
			"database_healthy":  dbHealthy,
			"has_recent_errors": hasErrors,
			"cycle_info":        cycleInfo,
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetReports returns paginated harvest report data
func (ws *WebServer) handleGetReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	reports, err := state.GetRecentReports(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent harvest reports")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}

	response := map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
		"limit":   limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetLatestReport returns the most recent harvest report
func (ws *WebServer) handleGetLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := state.GetLatestReport()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get latest harvest report")
		ws.writeErrorResponse(w, http.StatusNotFound, "No reports found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, report)
}

// handleGetProjectedAPR returns the projected supply APR after a
// hypothetical position change. The delta query parameter is a signed
// integer in base units; positive adds liquidity, negative removes it.
func (ws *WebServer) handleGetProjectedAPR(w http.ResponseWriter, r *http.Request) {
	deltaStr := r.URL.Query().Get("delta")
	if deltaStr == "" {
		deltaStr = "0"
	}

	delta, ok := sdkmath.NewIntFromString(deltaStr)
	if !ok {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid delta parameter")
		return
	}

	aprWad, err := ws.projector.AprAfterDebtChange(ws.strategy.Asset(), delta)
	if err != nil {
		webLogger.Error().Err(err).Str("delta", delta.String()).Msg("Failed to project APR")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to project APR")
		return
	}

	aprFraction, err := utils.WadToFloat64(aprWad)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to convert projected APR")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to convert projected APR")
		return
	}

	response := map[string]interface{}{
		"asset":       ws.strategy.Asset().Hex(),
		"delta":       delta.String(),
		"apr_wad":     aprWad.String(),
		"apr_percent": aprFraction * 100,
		"timestamp":   time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetLimits returns the live deposit and withdraw capacity limits
func (ws *WebServer) handleGetLimits(w http.ResponseWriter, r *http.Request) {
	depositLimit, err := ws.strategy.AvailableDepositLimit(ws.strategy.Asset())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to read deposit limit")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read deposit limit")
		return
	}

	withdrawLimit, err := ws.strategy.AvailableWithdrawLimit(ws.strategy.Asset())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to read withdraw limit")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read withdraw limit")
		return
	}

	response := map[string]interface{}{
		"asset":          ws.strategy.Asset().Hex(),
		"deposit_limit":  depositLimit.String(),
		"withdraw_limit": withdrawLimit.String(),
		"timestamp":      time.Now().UTC(),
	}
	if tokens, convErr := utils.AmountToFloat64(withdrawLimit, ws.strategy.Decimals()); convErr == nil {
		response["withdraw_limit_tokens"] = tokens
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
