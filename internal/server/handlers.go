package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/analysis"
	"github.com/dgnsrekt/options-levels/internal/batch"
	"github.com/dgnsrekt/options-levels/internal/config"
)

const serviceName = "options-levels"

type Server struct {
	analyzer batch.TickerAnalyzer
	manager  *batch.Manager
	reload   *ReloadManager
	logger   *zap.Logger
}

// NewServer wires the handlers. reload may be nil when serving live data.
func NewServer(analyzer batch.TickerAnalyzer, manager *batch.Manager, reload *ReloadManager, logger *zap.Logger) *Server {
	return &Server{
		analyzer: analyzer,
		manager:  manager,
		reload:   reload,
		logger:   logger,
	}
}

type errorResponse struct {
	Error  string        `json:"error"`
	Symbol string        `json:"symbol,omitempty"`
	Kind   analysis.Kind `json:"kind,omitempty"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	DataDate string `json:"dataDate,omitempty"`
}

type batchResponse struct {
	Results []batch.Entry `json:"results"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: serviceName}
	if s.reload != nil {
		resp.DataDate = s.reload.CurrentDate()
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOptions handles GET /options/{ticker}.
func (s *Server) GetOptions(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))

	s.logger.Debug("options request", zap.String("ticker", ticker))

	result, err := s.analyzer.Analyze(r.Context(), ticker)
	if err != nil {
		kind := analysis.Classify(err)
		s.logger.Warn("analysis failed",
			zap.String("ticker", ticker),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		writeJSON(w, statusForKind(kind), errorResponse{
			Error:  err.Error(),
			Symbol: ticker,
			Kind:   kind,
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetBatch handles GET /batch?symbols=A,B.
func (s *Server) GetBatch(w http.ResponseWriter, r *http.Request) {
	symbols, err := config.ParseSymbols(r.URL.Query().Get("symbols"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.manager.Validate(symbols); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, summary, err := s.manager.Execute(r.Context(), symbols)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Debug("batch served",
		zap.Strings("symbols", symbols),
		zap.Int("success", summary.Success),
		zap.Int("failed", summary.Failed),
	)

	writeJSON(w, http.StatusOK, batchResponse{Results: entries})
}

// ReloadData handles POST /data/reload?date=YYYY-MM-DD.
func (s *Server) ReloadData(w http.ResponseWriter, r *http.Request) {
	result, err := s.reload.Reload(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrReloadInProgress):
			status = http.StatusConflict
		case errors.Is(err, ErrInvalidDate):
			status = http.StatusBadRequest
		case errors.Is(err, ErrDateNotFound):
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// NotFound answers unknown paths with a hint listing the routes.
func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":     "not found",
		"endpoints": []string{"/health", "/options/{ticker}", "/batch?symbols=A,B", "/ws"},
	})
}

func (s *Server) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

// statusForKind maps a failure kind to the single-ticker response status.
func statusForKind(kind analysis.Kind) int {
	switch kind {
	case analysis.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case analysis.KindNoQuoteData, analysis.KindNoTradableData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
