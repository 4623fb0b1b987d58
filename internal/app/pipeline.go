package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/grapple/internal/adapters/mq/queue"
	"github.com/okian/grapple/internal/adapters/mq/worker"
	"github.com/okian/grapple/internal/domain/aggregate"
	"github.com/okian/grapple/internal/domain/dedupe"
	"github.com/okian/grapple/internal/domain/elo"
	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/internal/domain/types"
	"github.com/okian/grapple/pkg/logger"
	"github.com/okian/grapple/pkg/metrics"
)

// Run is the complete output of one pipeline pass.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time

	// State is the rating state after the last match. Extend never mutates it.
	State *elo.State
	// Matches are every match applied so far, in sequence order.
	Matches   []model.RatedMatch
	Aggregate aggregate.Result
	Tables    types.Tables
	// Report covers the documents of this pass only.
	Report model.Report

	wrestlers map[string]int // id -> position in Tables.Wrestlers
}

// Run recomputes everything from docs, starting from the initial rating.
// Record-level problems land in the report; only cancellation fails a run.
func (s *Service) Run(ctx context.Context, docs []model.RoundDocument) (*Run, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	dd := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	r, err := s.pass(ctx, docs, dd, nil)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.deduper = dd
	s.mu.Unlock()
	return r, nil
}

// Extend applies only the matches of new documents on top of the latest
// run. The previous run is left untouched; readers switch to the returned
// one once it is complete. Documents already seen are reported as duplicates;
// a failed pass records none of docs as seen.
func (s *Service) Extend(ctx context.Context, docs []model.RoundDocument) (*Run, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	prev := s.Last()
	if prev == nil {
		return nil, ErrNoRun
	}
	dd := s.seen().Clone()
	r, err := s.pass(ctx, docs, dd, prev)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.deduper = dd
	s.mu.Unlock()
	return r, nil
}

func (s *Service) pass(ctx context.Context, docs []model.RoundDocument, dd dedupe.Deduper, prev *Run) (*Run, error) {
	r := &Run{ID: uuid.NewString(), Started: time.Now()}
	log := s.logger.Named("pipeline")
	log.Info(ctx, "pipeline run started",
		logger.String("run_id", r.ID),
		logger.Int("documents", len(docs)),
		logger.Bool("incremental", prev != nil))

	stage := time.Now()
	extracted, report, err := s.extract(ctx, docs, dd)
	if err != nil {
		return nil, err
	}
	observe("extract", stage)

	stage = time.Now()
	seq := s.sequencer.Sequence(ctx, extracted)
	report.Merge(seq.Report)
	recordRatingMetrics(nil, seq.Report)
	observe("sequence", stage)

	stage = time.Now()
	var rated elo.Result
	if prev == nil {
		r.State, rated = s.engine.Run(ctx, seq.Matches)
	} else {
		r.State = prev.State.Clone()
		rated = s.engine.Apply(ctx, r.State, seq.Matches)
	}
	report.Merge(rated.Report)
	recordRatingMetrics(rated.Matches, rated.Report)
	observe("rate", stage)

	if prev != nil {
		r.Matches = make([]model.RatedMatch, 0, len(prev.Matches)+len(rated.Matches))
		r.Matches = append(r.Matches, prev.Matches...)
	}
	r.Matches = append(r.Matches, rated.Matches...)

	stage = time.Now()
	r.Aggregate, err = s.aggregator.Aggregate(ctx, r.State, r.Matches)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	observe("aggregate", stage)

	r.Tables = types.NewTables(r.Matches, r.Aggregate)
	r.wrestlers = make(map[string]int, len(r.Tables.Wrestlers))
	entries := make([]types.Entry, len(r.Tables.Wrestlers))
	for i, w := range r.Tables.Wrestlers {
		r.wrestlers[w.WrestlerID] = i
		entries[i] = types.Entry{Rank: w.Rank, WrestlerID: w.WrestlerID, Name: w.Name, Team: w.Team, Rating: w.CurrentRating}
	}
	if err := s.index.Replace(ctx, entries); err != nil {
		return nil, fmt.Errorf("index ratings: %w", err)
	}

	report.Sort()
	r.Report = report
	r.Finished = time.Now()

	s.mu.Lock()
	s.last = r
	s.mu.Unlock()

	log.Info(ctx, "pipeline run finished",
		logger.String("run_id", r.ID),
		logger.Int("documents", report.Documents),
		logger.Int("source_rows", report.SourceRows),
		logger.Int("new_matches", len(rated.Matches)),
		logger.Int("wrestlers", r.State.Len()),
		logger.Int("issues", len(report.Issues)),
		logger.Bool("reconciled", report.Reconciled()),
		logger.Duration("took", r.Finished.Sub(r.Started)))
	return r, nil
}

// extract fans documents out to a worker pool and gathers matches and
// reports. Duplicate documents never reach the queue.
func (s *Service) extract(ctx context.Context, docs []model.RoundDocument, dd dedupe.Deduper) ([]model.Match, model.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	pool := worker.NewPool(s.workerCount, q, NewDocumentProcessor(s.normalizer, s.extractor),
		worker.WithLogger(s.logger))
	out := pool.Start(ctx)

	var dups model.Report
	produced := make(chan error, 1)
	go func() {
		defer func() { _ = q.Close() }()
		for _, doc := range docs {
			if dedupe.SeenDocument(ctx, dd, doc) {
				metrics.RecordDuplicateDocument()
				dups.Add(model.Issue{
					Kind:    model.IssueDuplicate,
					EventID: doc.EventID,
					RoundID: doc.RoundID,
					Reason:  "round document already processed",
				})
				continue
			}
			if err := q.Enqueue(ctx, doc); err != nil {
				dd.Unrecord(ctx, doc.Key())
				produced <- err
				return
			}
		}
		produced <- nil
	}()

	var (
		matches []model.Match
		report  model.Report
	)
	for o := range out {
		if o.Err != nil {
			report.Documents++
			report.Add(model.Issue{
				Kind:    model.IssueExtraction,
				EventID: o.Doc.EventID,
				RoundID: o.Doc.RoundID,
				Reason:  o.Err.Error(),
			})
			continue
		}
		matches = append(matches, o.Result.Matches...)
		report.Merge(o.Result.Report)
	}
	if err := pool.Shutdown(ctx); err != nil {
		return nil, model.Report{}, err
	}
	if err := <-produced; err != nil {
		return nil, model.Report{}, fmt.Errorf("queue documents: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, model.Report{}, err
	}
	report.Merge(dups)
	return matches, report, nil
}

func observe(stage string, start time.Time) {
	metrics.RecordStageDuration(stage, float64(time.Since(start).Microseconds())/1000)
}
