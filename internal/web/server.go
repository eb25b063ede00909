package web

import (
	"database/sql"
	"embed"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/elys-network/vbt/internal/config"
	"github.com/elys-network/vbt/internal/engine"
	"github.com/elys-network/vbt/internal/logger"
	"github.com/elys-network/vbt/internal/marketdata"
	"github.com/elys-network/vbt/internal/state"
	"github.com/elys-network/vbt/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

//go:embed static/*
var staticFiles embed.FS

//go:embed static/index.html
var dashboardHTML []byte

// WebServer handles HTTP requests for backtest results and run submission.
type WebServer struct {
	router *mux.Router
	addr   string
}

// NewWebServer creates a new web server instance.
func NewWebServer(addr string) *WebServer {
	if addr == "" {
		addr = ":8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		addr:   addr,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes.
func (ws *WebServer) setupRoutes() {
	// Static files
	staticHandler := http.FileServer(http.FS(staticFiles))
	ws.router.PathPrefix("/static/").Handler(http.StripPrefix("/", staticHandler))

	// Dashboard routes
	ws.router.HandleFunc("/", ws.handleDashboard).Methods("GET")
	ws.router.HandleFunc("/dashboard", ws.handleDashboard).Methods("GET")

	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/results", ws.handleGetResults).Methods("GET")
	api.HandleFunc("/results/latest", ws.handleGetLatestResult).Methods("GET")
	api.HandleFunc("/results/{id}", ws.handleGetResult).Methods("GET")
	api.HandleFunc("/params", ws.handleGetParams).Methods("GET")
	api.HandleFunc("/backtests", ws.handleRunBacktest).Methods("POST")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server and blocks until it stops.
func (ws *WebServer) Start() error {
	webLogger.Info().Str("addr", ws.addr).Msg("Starting web server")

	server := &http.Server{
		Addr:         ws.addr,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server and database status.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "not configured"
	if state.DB != nil {
		if err := state.TestDBConnection(); err != nil {
			dbStatus = "unreachable"
		} else {
			dbStatus = "connected"
		}
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}

// handleDashboard serves the embedded dashboard page.
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(dashboardHTML)
}

// handleGetResults returns recent backtest runs, newest first.
func (ws *WebServer) handleGetResults(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			ws.writeErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results, err := state.GetRecentResults(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to fetch backtest results")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "failed to fetch results")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// handleGetLatestResult returns the most recent run.
func (ws *WebServer) handleGetLatestResult(w http.ResponseWriter, r *http.Request) {
	result, err := state.GetLatestResult()
	if err != nil {
		if err == sql.ErrNoRows {
			ws.writeErrorResponse(w, http.StatusNotFound, "no backtest runs recorded yet")
			return
		}
		webLogger.Error().Err(err).Msg("Failed to fetch latest result")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "failed to fetch latest result")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, result)
}

// handleGetResult returns one run by its UUID.
func (ws *WebServer) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	result, err := state.GetResultByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			ws.writeErrorResponse(w, http.StatusNotFound, "no backtest run with that id")
			return
		}
		webLogger.Error().Err(err).Msg("Failed to fetch result")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "failed to fetch result")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, result)
}

// handleGetParams returns the active rebalance parameter set, falling back
// to the compiled-in defaults when the database has none.
func (ws *WebServer) handleGetParams(w http.ResponseWriter, r *http.Request) {
	if state.DB != nil {
		params, paramsID, err := state.LoadActiveRebalanceParams()
		if err == nil {
			ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
				"params_id": paramsID,
				"source":    "database",
				"params":    params,
			})
			return
		}
		if err != sql.ErrNoRows {
			webLogger.Error().Err(err).Msg("Failed to load active parameters")
			ws.writeErrorResponse(w, http.StatusInternalServerError, "failed to load parameters")
			return
		}
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"source": "defaults",
		"params": config.DefaultRebalanceParams,
	})
}

// backtestRequest is the POST /api/backtests body. Every field is optional
// and overlays the compiled-in defaults.
type backtestRequest struct {
	PoolType          *string  `json:"pool_type,omitempty"`
	StepMinutes       *int     `json:"step_minutes,omitempty"`
	LookbackDays      *int     `json:"lookback_days,omitempty"`
	InitialCapitalUSD *float64 `json:"initial_capital_usd,omitempty"`
	Seed              *uint32  `json:"seed,omitempty"`
	StartPrice        *float64 `json:"start_price,omitempty"`
	AnnualVolPct      *float64 `json:"annual_vol_pct,omitempty"`
	AnnualDriftPct    *float64 `json:"annual_drift_pct,omitempty"`
}

// handleRunBacktest runs a synthetic-data backtest synchronously and, when a
// database is configured, persists the result.
func (ws *WebServer) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			ws.writeErrorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	cfg := config.DefaultBacktestConfig
	if req.PoolType != nil {
		pt := types.PoolType(*req.PoolType)
		switch pt {
		case types.PoolTypeCL, types.PoolTypeVolatile, types.PoolTypeStable:
			cfg.PoolType = pt
		default:
			ws.writeErrorResponse(w, http.StatusBadRequest, "pool_type must be one of cl, volatile, stable")
			return
		}
	}
	if req.StepMinutes != nil {
		if *req.StepMinutes <= 0 {
			ws.writeErrorResponse(w, http.StatusBadRequest, "step_minutes must be positive")
			return
		}
		cfg.StepMinutes = *req.StepMinutes
	}
	if req.LookbackDays != nil {
		if *req.LookbackDays <= 0 {
			ws.writeErrorResponse(w, http.StatusBadRequest, "lookback_days must be positive")
			return
		}
		cfg.LookbackDays = *req.LookbackDays
	}
	if req.InitialCapitalUSD != nil {
		cfg.InitialCapitalUSD = *req.InitialCapitalUSD
	}

	synth := marketdata.SyntheticConfig{
		Seed:             42,
		StartTsMs:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		StepMinutes:      cfg.StepMinutes,
		Points:           cfg.LookbackDays * 24 * 60 / cfg.StepMinutes,
		StartPrice:       2.50,
		AnnualDriftPct:   0,
		AnnualVolPct:     60,
		FeeAPR:           cfg.DefaultFeeAPR,
		EmissionAPR:      cfg.DefaultEmissionAPR,
		PoolLiquidityUSD: cfg.DefaultPoolLiquidityUSD,
		BaseGasUSD:       cfg.DefaultGasUSD,
	}
	if req.Seed != nil {
		synth.Seed = *req.Seed
	}
	if req.StartPrice != nil && *req.StartPrice > 0 {
		synth.StartPrice = *req.StartPrice
	}
	if req.AnnualVolPct != nil && *req.AnnualVolPct >= 0 {
		synth.AnnualVolPct = *req.AnnualVolPct
	}
	if req.AnnualDriftPct != nil {
		synth.AnnualDriftPct = *req.AnnualDriftPct
	}

	series := marketdata.GenerateSeries(synth)
	result, err := engine.Run(cfg, series)
	if err != nil {
		webLogger.Error().Err(err).Msg("Backtest run failed")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "backtest failed: "+err.Error())
		return
	}

	runID := uuid.New().String()
	if state.DB != nil {
		if err := state.SaveBacktestResult(runID, result, state.GetActiveRebalanceParamsID()); err != nil {
			webLogger.Error().Err(err).Msg("Failed to persist backtest result")
		}
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"result": result,
	})
}

// writeJSONResponse writes a JSON payload with the given status.
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response.
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers.
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests.
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

// responseWriterWrapper wraps http.ResponseWriter to capture status code.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
