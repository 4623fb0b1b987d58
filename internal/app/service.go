// Package service wires the pipeline stages together and serves the
// results of the latest run to the HTTP API.
package service

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/okian/grapple/internal/adapters/repository"
	"github.com/okian/grapple/internal/config"
	"github.com/okian/grapple/internal/domain/aggregate"
	"github.com/okian/grapple/internal/domain/dedupe"
	"github.com/okian/grapple/internal/domain/elo"
	"github.com/okian/grapple/internal/domain/extract"
	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/internal/domain/normalize"
	"github.com/okian/grapple/internal/domain/sequence"
	"github.com/okian/grapple/internal/domain/types"
	"github.com/okian/grapple/pkg/logger"
	"github.com/okian/grapple/pkg/metrics"
)

// Service runs the pipeline and keeps the latest result for readers.
type Service struct {
	mu    sync.RWMutex // guards last and deduper
	runMu sync.Mutex   // serializes Run and Extend

	normalizer *normalize.Normalizer
	extractor  *extract.Extractor
	sequencer  *sequence.Sequencer
	engine     *elo.Engine
	aggregator *aggregate.Aggregator
	index      repository.Store
	deduper    dedupe.Deduper

	workerCount int
	queueSize   int
	dedupeSize  int

	last   *Run
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of extraction workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the document queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the duplicate document detector.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithExtractor replaces the default extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithEngine replaces the default rating engine.
func WithEngine(e *elo.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithAggregator replaces the default aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithStore replaces the rating index.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.index = st
		}
	}
}

// New constructs a Service. Stages not supplied through options use their
// package defaults.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   256,
		dedupeSize:  100_000,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalize.New(normalize.WithLogger(s.logger.Named("normalizer")))
	}
	if s.extractor == nil {
		s.extractor = extract.New(extract.WithLogger(s.logger.Named("extractor")))
	}
	if s.sequencer == nil {
		s.sequencer = sequence.New(sequence.WithLogger(s.logger.Named("sequencer")))
	}
	if s.engine == nil {
		s.engine = elo.New(elo.WithLogger(s.logger.Named("engine")))
	}
	if s.aggregator == nil {
		s.aggregator = aggregate.New(
			aggregate.WithWorkers(s.workerCount),
			aggregate.WithLogger(s.logger.Named("aggregator")))
	}
	if s.index == nil {
		s.index = repository.NewTreapStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// NewFromConfig builds every stage from cfg.
func NewFromConfig(cfg *config.Config, l logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.Nop()
	}
	onConflict, err := elo.ParseInconsistencyPolicy(cfg.OnInconsistency)
	if err != nil {
		return nil, err
	}
	policy := elo.NewDecisionPolicy(cfg.KFactor,
		elo.WithMultipliers(cfg.DecisionMultipliers),
		elo.WithOvertimeMultiplier(cfg.OvertimeMultiplier))

	return New(
		WithLogger(l),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithExtractor(extract.New(
			extract.WithLogger(l.Named("extractor")),
			extract.WithNameAliases(cfg.NameAliases),
			extract.WithTeamAliases(cfg.TeamAliases))),
		WithEngine(elo.New(
			elo.WithKPolicy(policy),
			elo.WithInitialRating(cfg.InitialRating),
			elo.WithCountUnrated(cfg.CountUnratedMatches),
			elo.WithRateForfeits(cfg.RateForfeits),
			elo.WithInconsistencyPolicy(onConflict),
			elo.WithLogger(l.Named("engine")))),
		WithAggregator(aggregate.New(
			aggregate.WithWorkers(cfg.WorkerCount),
			aggregate.WithSeasonStartMonth(time.Month(cfg.SeasonStartMonth)),
			aggregate.WithLogger(l.Named("aggregator")))),
	), nil
}

// Last returns the latest run, or nil before the first one.
func (s *Service) Last() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Service) current() (*Run, error) {
	if r := s.Last(); r != nil {
		return r, nil
	}
	return nil, ErrNoRun
}

// TopN returns the n highest current ratings.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.index.TopN(ctx, n)
}

// Rank returns a wrestler's position by current rating.
func (s *Service) Rank(ctx context.Context, wrestlerID string) (types.Entry, error) {
	return s.index.Rank(ctx, wrestlerID)
}

// Leaderboard returns up to limit individual rows of one season, in
// leaderboard order. An empty season means all seasons combined; a limit
// below one means no limit.
func (s *Service) Leaderboard(_ context.Context, season string, limit int) ([]types.IndividualRow, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	if season == "" {
		season = aggregate.AllSeasons
	}
	var out []types.IndividualRow
	for _, row := range r.Tables.Individuals {
		if row.Season != season {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Teams returns the team leaderboard of one season.
func (s *Service) Teams(_ context.Context, season string) ([]types.TeamRow, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	if season == "" {
		season = aggregate.AllSeasons
	}
	var out []types.TeamRow
	for _, row := range r.Tables.Teams {
		if row.Season == season {
			out = append(out, row)
		}
	}
	return out, nil
}

// Seasons lists the season labels present in the latest run, newest first.
func (s *Service) Seasons(_ context.Context) ([]string, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, row := range r.Tables.Individuals {
		if _, ok := seen[row.Season]; !ok && row.Season != aggregate.AllSeasons {
			seen[row.Season] = struct{}{}
			out = append(out, row.Season)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

// WrestlerView is everything known about one wrestler.
type WrestlerView struct {
	Wrestler   types.WrestlerRow     `json:"wrestler"`
	History    []types.HistoryRow    `json:"history"`
	HeadToHead []types.HeadToHeadRow `json:"head_to_head"`
}

// Wrestler returns a wrestler's summary, rating history and head-to-head rows.
func (s *Service) Wrestler(_ context.Context, wrestlerID string) (WrestlerView, error) {
	r, err := s.current()
	if err != nil {
		return WrestlerView{}, err
	}
	i, ok := r.wrestlers[wrestlerID]
	if !ok {
		return WrestlerView{}, ErrNotFound
	}
	v := WrestlerView{Wrestler: r.Tables.Wrestlers[i]}
	for _, h := range r.Tables.History {
		if h.WrestlerID == wrestlerID {
			v.History = append(v.History, h)
		}
	}
	for _, h := range r.Tables.HeadToHead {
		if h.WrestlerID == wrestlerID {
			v.HeadToHead = append(v.HeadToHead, h)
		}
	}
	return v, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	stats := map[string]interface{}{
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"seenDocuments": s.DedupeSize(),
		"initialRating": s.engine.InitialRating(),
		"wrestlers":     s.index.Count(ctx),
	}
	r := s.Last()
	if r == nil {
		stats["ready"] = false
		return stats
	}
	issues := map[string]int{}
	for _, i := range r.Report.Issues {
		issues[i.Kind.String()]++
	}
	outcomes := map[string]int{}
	for o, n := range (elo.Result{Matches: r.Matches}).Outcomes() {
		outcomes[o.String()] = n
	}
	stats["ready"] = true
	stats["runId"] = r.ID
	stats["finishedAt"] = r.Finished.UTC().Format(time.RFC3339)
	stats["durationMs"] = r.Finished.Sub(r.Started).Milliseconds()
	stats["documents"] = r.Report.Documents
	stats["sourceRows"] = r.Report.SourceRows
	stats["matches"] = len(r.Matches)
	stats["outcomes"] = outcomes
	stats["issues"] = issues
	stats["reconciled"] = r.Report.Reconciled()
	return stats
}

// DedupeSize returns the number of round documents seen so far.
func (s *Service) DedupeSize() int64 {
	return s.seen().Size()
}

func (s *Service) seen() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

func recordRatingMetrics(matches []model.RatedMatch, report model.Report) {
	for _, m := range matches {
		metrics.RecordMatchRated(m.Rating.Outcome.String())
	}
	for _, i := range report.Issues {
		switch i.Kind {
		case model.IssueRating, model.IssueDuplicate:
			metrics.RecordRatingWarning(i.Kind.String())
		case model.IssueAmbiguity:
			metrics.RecordSequencingAmbiguity()
		}
	}
}
