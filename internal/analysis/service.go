package analysis

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/backtest"
	"github.com/rxtech-lab/argo-insight/internal/indicator"
	"github.com/rxtech-lab/argo-insight/internal/logger"
	"github.com/rxtech-lab/argo-insight/internal/narrative"
	"github.com/rxtech-lab/argo-insight/internal/store"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/internal/version"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers bounds AnalyzeBatch when no limit is configured.
const DefaultMaxWorkers = 5

// Request names one instrument and date range to analyse.
type Request struct {
	Symbol string `json:"symbol" validate:"required"`
	// DataType defaults to stock. The Chinese names are accepted too.
	DataType  types.DataType    `json:"data_type"`
	StartDate string            `json:"start_date" validate:"required"`
	EndDate   string            `json:"end_date" validate:"required"`
	Interval  provider.Interval `json:"interval,omitempty" validate:"omitempty,oneof=1m 5m 15m 30m 1h 4h 1d 1w 1M"`
	// Backtest overrides the service settings for this request.
	Backtest optional.Option[backtest.Config] `json:"backtest,omitempty"`
}

// Result is a finished analysis. Location is where the store wrote it, empty
// when the service has no store.
type Result struct {
	Analysis types.Analysis
	Location string
	Series   types.EnrichedSeries
	Backtest backtest.Result
}

// Service runs the fetch, indicator, backtest and summary pipeline.
type Service struct {
	provider   marketdata.Provider
	engine     *indicator.Engine
	simulator  *backtest.Simulator
	summarizer *narrative.Summarizer
	completer  narrative.Completer
	store      store.Store
	config     backtest.Config
	strict     bool
	maxWorkers int
	now        func() time.Time
	validate   *validator.Validate
	logger     *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCompleter refines the templated text through a completion service.
func WithCompleter(c narrative.Completer) Option {
	return func(s *Service) {
		s.completer = c
	}
}

// WithStore persists every successful analysis.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithBacktestConfig replaces the default simulator settings.
func WithBacktestConfig(cfg backtest.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithStrictDates rejects future dates and inverted ranges instead of repairing them.
func WithStrictDates() Option {
	return func(s *Service) {
		s.strict = true
	}
}

// WithMaxWorkers bounds the number of analyses AnalyzeBatch runs at once.
func WithMaxWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxWorkers = n
		}
	}
}

// WithSummarizer replaces the default English summarizer.
func WithSummarizer(summarizer *narrative.Summarizer) Option {
	return func(s *Service) {
		s.summarizer = summarizer
	}
}

// WithClock fixes the time used for date validation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a service reading bars from p.
func NewService(p marketdata.Provider, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Service{
		provider:   p,
		engine:     indicator.NewEngine(),
		simulator:  backtest.NewSimulator(),
		summarizer: narrative.NewSummarizer(),
		config:     backtest.DefaultConfig(),
		maxWorkers: DefaultMaxWorkers,
		now:        time.Now,
		validate:   validator.New(),
		logger:     log.Named("analysis"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Analyze runs the whole pipeline for one request.
func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	fetch, series, err := s.load(ctx, req)
	if err != nil {
		return Result{}, err
	}

	cfg := req.Backtest.TakeOr(s.config)

	run, err := s.simulator.Run(series, cfg)
	if err != nil && !errors.HasCode(err, errors.ErrCodeBacktestEmptySeries) {
		return Result{}, err
	}

	multiplier := optional.None[float64]()
	if fetch.DataType == types.DataTypeFutures {
		multiplier = optional.Some(marketdata.ContractMultiplier(fetch.Symbol))
	}

	report := optional.None[types.PerformanceReport]()
	if err == nil {
		report = optional.Some(run.Report)
	}

	summary, err := s.summarizer.Summarize(narrative.Input{
		Symbol:     fetch.Symbol,
		StartDate:  fetch.Start.Format(types.DateLayout),
		EndDate:    fetch.End.Format(types.DateLayout),
		Series:     series,
		Report:     report,
		Multiplier: multiplier,
	})
	if err != nil {
		return Result{}, err
	}

	text, refined := s.refine(ctx, summary)

	analysis := types.Analysis{
		ID:         uuid.NewString(),
		Version:    version.GetVersion(),
		CreatedAt:  s.now().UTC(),
		Symbol:     summary.Symbol,
		DataType:   fetch.DataType,
		StartDate:  summary.StartDate,
		EndDate:    summary.EndDate,
		Bars:       series.Len(),
		Multiplier: multiplier.TakeOr(1),
		Advice:     string(summary.Advice),
		Analysis:   text,
		Refined:    refined,
		Report:     run.Report,
	}

	if bar, _, ok := series.Last(); ok {
		analysis.LastDate = bar.Date()
		analysis.LastClose = bar.Close
	}

	result := Result{Analysis: analysis, Series: series, Backtest: run}

	if s.store != nil {
		location, err := s.store.Save(ctx, analysis)
		if err != nil {
			return Result{}, err
		}

		result.Location = location
	}

	s.logger.Info("Analysis finished",
		zap.String("id", analysis.ID),
		zap.String("symbol", analysis.Symbol),
		zap.Int("bars", analysis.Bars),
		zap.String("advice", analysis.Advice),
		zap.Bool("refined", refined),
		zap.String("location", result.Location),
	)

	return result, nil
}

// Backtest fetches and enriches the bars, then runs only the simulator.
func (s *Service) Backtest(ctx context.Context, req Request) (types.EnrichedSeries, backtest.Result, error) {
	_, series, err := s.load(ctx, req)
	if err != nil {
		return types.EnrichedSeries{}, backtest.Result{}, err
	}

	run, err := s.simulator.Run(series, req.Backtest.TakeOr(s.config))
	if err != nil {
		return types.EnrichedSeries{}, backtest.Result{}, err
	}

	return series, run, nil
}

// AnalyzeBatch analyses every request with at most maxWorkers in flight.
// Results keep the order of reqs. The first error cancels the rest.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)

	for i, req := range reqs {
		g.Go(func() error {
			result, err := s.Analyze(ctx, req)
			if err != nil {
				return errors.Wrapf(errors.GetCode(err), err, "analysis of %s failed", req.Symbol)
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// load validates the request, fetches the bars and computes the indicators.
// An empty result from the provider yields an empty series.
func (s *Service) load(ctx context.Context, req Request) (provider.Request, types.EnrichedSeries, error) {
	fetch, err := s.resolve(req)
	if err != nil {
		return provider.Request{}, types.EnrichedSeries{}, err
	}

	s.logger.Debug("Fetching bars",
		zap.String("symbol", fetch.Symbol),
		zap.String("data_type", string(fetch.DataType)),
		zap.Time("start", fetch.Start),
		zap.Time("end", fetch.End),
	)

	bars, err := s.provider.FetchBars(ctx, fetch)
	if err != nil && !errors.HasCode(err, errors.ErrCodeDataNotFound) {
		return provider.Request{}, types.EnrichedSeries{}, err
	}

	if len(bars) == 0 {
		s.logger.Warn("No bars found", zap.String("symbol", fetch.Symbol))

		return fetch, types.EnrichedSeries{Symbol: fetch.Symbol}, nil
	}

	series, err := s.engine.Compute(bars)
	if err != nil {
		return provider.Request{}, types.EnrichedSeries{}, err
	}

	return fetch, series, nil
}

func (s *Service) resolve(req Request) (provider.Request, error) {
	if err := s.validate.Struct(req); err != nil {
		return provider.Request{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid analysis request", err)
	}

	if cfg, err := req.Backtest.Take(); err == nil {
		if err := cfg.Validate(); err != nil {
			return provider.Request{}, err
		}
	}

	dataType := types.DataTypeStock
	if req.DataType != "" {
		parsed, ok := types.ParseDataType(string(req.DataType))
		if !ok {
			return provider.Request{}, errors.Newf(errors.ErrCodeUnsupportedDataType, "unsupported data type: %s", req.DataType)
		}

		dataType = parsed
	}

	symbol, err := marketdata.CanonicalSymbol(req.Symbol, dataType)
	if err != nil {
		return provider.Request{}, err
	}

	validate := marketdata.ValidateDateRange
	if s.strict {
		validate = marketdata.ValidateDateRangeStrict
	}

	dates, err := validate(req.StartDate, req.EndDate, s.now())
	if err != nil {
		return provider.Request{}, err
	}

	return provider.Request{
		Symbol:   symbol,
		DataType: dataType,
		Start:    dates.Start,
		End:      dates.End,
		Interval: req.Interval,
	}, nil
}

// refine passes the templated text through the completer. A failure keeps the
// templated text.
func (s *Service) refine(ctx context.Context, summary narrative.Summary) (string, bool) {
	if s.completer == nil {
		return summary.Text, false
	}

	text, err := s.completer.Complete(ctx, summary.Text)
	if err != nil || text == "" {
		s.logger.Error("Failed to refine analysis, keeping the template text",
			zap.String("symbol", summary.Symbol),
			zap.Error(err),
		)

		return summary.Text, false
	}

	return text, true
}
