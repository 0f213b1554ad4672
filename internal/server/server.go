package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/analysis"
	"github.com/rxtech-lab/argo-insight/internal/backtest"
	"github.com/rxtech-lab/argo-insight/internal/logger"
	"github.com/rxtech-lab/argo-insight/internal/store"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/internal/version"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"go.uber.org/zap"
)

// Analyzer is the part of analysis.Service the API calls.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error)
	Backtest(ctx context.Context, req analysis.Request) (types.EnrichedSeries, backtest.Result, error)
}

// Config configures the HTTP API.
type Config struct {
	// BaseURL prefixes the artefact links in responses.
	BaseURL string
	// RequestTimeout bounds one analysis. Zero means no limit.
	RequestTimeout time.Duration
}

// Server exposes the analysis pipeline over HTTP.
type Server struct {
	analyzer   Analyzer
	store      store.Store
	config     Config
	metrics    *Metrics
	router     *mux.Router
	httpServer *http.Server
	logger     *logger.Logger
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Symbol    string `json:"symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	DataType  string `json:"data_type"`
}

// AnalyzeResponse is returned by POST /analyze.
type AnalyzeResponse struct {
	Message     string                  `json:"message"`
	ID          string                  `json:"id"`
	JSONFileURL string                  `json:"json_file_url"`
	Symbol      string                  `json:"symbol"`
	StartDate   string                  `json:"start_date"`
	EndDate     string                  `json:"end_date"`
	Advice      string                  `json:"advice"`
	Multiplier  float64                 `json:"contract_multiplier"`
	Analysis    string                  `json:"analysis"`
	Report      types.PerformanceReport `json:"report"`
}

// BacktestRequest is the body of POST /backtest. Config fields left out
// keep their defaults.
type BacktestRequest struct {
	AnalyzeRequest
	Config json.RawMessage `json:"config,omitempty"`
}

// BacktestResponse is returned by POST /backtest.
type BacktestResponse struct {
	Symbol    string                  `json:"symbol"`
	Config    backtest.Config         `json:"config"`
	Report    types.PerformanceReport `json:"report"`
	Trades    []types.Trade           `json:"trades"`
	Portfolio []types.PortfolioState  `json:"portfolio"`
}

type errorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// NewServer wires the routes. st may be nil, in which case the artefact
// routes answer 404.
func NewServer(analyzer Analyzer, st store.Store, config Config, metrics *Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{
		analyzer: analyzer,
		store:    st,
		config:   config,
		metrics:  metrics,
		router:   mux.NewRouter(),
		logger:   log.Named("server"),
	}

	s.router.Use(s.metrics.Middleware)
	s.router.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	s.router.HandleFunc("/backtest", s.handleBacktest).Methods(http.MethodPost)
	s.router.HandleFunc("/analyses", s.handleListAnalyses).Methods(http.MethodGet)
	s.router.HandleFunc("/analyses/{id}", s.handleGetAnalysis).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.ErrCodeUnknown, "http server failed", err)
		}

		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.logger.Info("Shutting down HTTP server")

		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if !s.decode(w, r, &body) {
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, err := s.analyzer.Analyze(ctx, body.toRequest())
	if err != nil {
		s.writeError(w, err)

		return
	}

	a := result.Analysis
	s.metrics.AnalysesTotal.WithLabelValues(a.Advice, boolLabel(a.Refined)).Inc()

	s.writeJSON(w, http.StatusOK, AnalyzeResponse{
		Message:     "analysis completed",
		ID:          a.ID,
		JSONFileURL: s.artifactURL(a.ID),
		Symbol:      a.Symbol,
		StartDate:   a.StartDate,
		EndDate:     a.EndDate,
		Advice:      a.Advice,
		Multiplier:  a.Multiplier,
		Analysis:    a.Analysis,
		Report:      a.Report,
	})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	body := BacktestRequest{}
	if !s.decode(w, r, &body) {
		return
	}

	req := body.toRequest()

	if len(body.Config) > 0 {
		cfg := backtest.DefaultConfig()
		if err := json.Unmarshal(body.Config, &cfg); err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeMalformedInput, "invalid backtest config", err))

			return
		}

		req.Backtest = optional.Some(cfg)
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	_, run, err := s.analyzer.Backtest(ctx, req)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.metrics.BacktestReturn.Observe(run.Report.TotalReturn)

	s.writeJSON(w, http.StatusOK, BacktestResponse{
		Symbol:    run.Symbol,
		Config:    run.Config,
		Report:    run.Report,
		Trades:    run.Trades,
		Portfolio: run.Portfolio,
	})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errors.New(errors.ErrCodeArtifactNotFound, "analysis storage is disabled"))

		return
	}

	a, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, []types.Analysis{})

		return
	}

	list, err := s.store.List(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	if list == nil {
		list = []types.Analysis{}
	}

	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (r AnalyzeRequest) toRequest() analysis.Request {
	return analysis.Request{
		Symbol:    r.Symbol,
		DataType:  types.DataType(r.DataType),
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	}
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeout > 0 {
		return context.WithTimeout(r.Context(), s.config.RequestTimeout)
	}

	return context.WithCancel(r.Context())
}

func (s *Server) artifactURL(id string) string {
	return strings.TrimRight(s.config.BaseURL, "/") + "/analyses/" + id
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeMalformedInput, "invalid request body", err))

		return false
	}

	return true
}

// statusFor maps an error code to the HTTP status it is reported with.
func statusFor(code errors.ErrorCode) int {
	switch {
	case code.IsValidation(), code == errors.ErrCodeBacktestConfigError:
		return http.StatusBadRequest
	case code.IsNotFound(), code == errors.ErrCodeBacktestEmptySeries:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	} else {
		s.logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	s.writeJSON(w, status, errorResponse{Code: int(code), Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}

	return "false"
}
