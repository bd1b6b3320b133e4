package investigator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"footprint/internal/domain"
	"footprint/internal/identity"
	"footprint/internal/ports"
)

const defaultTimeout = 30 * time.Second

// Correlator turns a settled aggregate record into a correlation result.
type Correlator interface {
	Correlate(agg domain.AggregateRecord) domain.CorrelationResult
}

// ProgressFunc is told how many connector calls have settled out of total.
type ProgressFunc func(done, total int)

type Options struct {
	// Timeout bounds every single connector call.
	Timeout time.Duration
	// MaxConcurrency caps simultaneous connector calls; 0 means no cap.
	MaxConcurrency int
	DefaultRegion  string

	Now   func() time.Time
	NewID func() string
}

// Service is the orchestrator: validate, fan out, merge, correlate.
type Service struct {
	connectors []ports.Connector
	correlator Correlator
	validator  identity.Validator
	timeout    time.Duration
	limit      int
	now        func() time.Time
	newID      func() string
	logger     *zap.Logger
}

func New(connectors []ports.Connector, correlator Correlator, logger *zap.Logger, opts Options) *Service {
	s := &Service{
		connectors: connectors,
		correlator: correlator,
		validator:  identity.Validator{DefaultRegion: opts.DefaultRegion},
		timeout:    opts.Timeout,
		limit:      opts.MaxConcurrency,
		now:        opts.Now,
		newID:      opts.NewID,
		logger:     logger.Named("investigator"),
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

// call is one connector applied to one identifier.
type call struct {
	conn ports.Connector
	id   domain.Identifier
}

// Investigate runs a full investigation. Only validation errors are returned;
// every source-level failure is recorded in the snapshot instead.
func (s *Service) Investigate(ctx context.Context, in identity.Input) (*domain.Snapshot, error) {
	return s.InvestigateWithProgress(ctx, in, nil)
}

func (s *Service) InvestigateWithProgress(ctx context.Context, in identity.Input, progress ProgressFunc) (*domain.Snapshot, error) {
	target, err := s.validator.Validate(in)
	if err != nil {
		return nil, err
	}

	runID := s.newID()
	logger := s.logger.With(zap.String("run_id", runID))
	agg := &aggregator{record: domain.NewAggregateRecord(target, s.now().UTC())}

	calls, used := s.plan(target)
	defer s.release(logger, used)

	logger.Info("Starting investigation",
		zap.Bool("email", target.Email != ""),
		zap.Bool("phone", target.Phone != ""),
		zap.Int("calls", len(calls)),
	)

	var done atomic.Int32
	g := new(errgroup.Group)
	if s.limit > 0 {
		g.SetLimit(s.limit)
	}
	for _, c := range calls {
		g.Go(func() error {
			res := s.invoke(ctx, c)
			agg.merge(res)
			if res.Status != domain.StatusOK && res.Status != domain.StatusNoData {
				logger.Warn("Source did not return data",
					zap.String("source", res.Source),
					zap.String("category", string(res.Category)),
					zap.String("status", string(res.Status)),
					zap.String("error", res.Error),
				)
			}
			if progress != nil {
				progress(int(done.Add(1)), len(calls))
			}
			return nil
		})
	}
	_ = g.Wait() // failures are recorded per source

	record := agg.freeze()
	snap := &domain.Snapshot{
		ID:           runID,
		Timestamp:    record.CreatedAt,
		TargetInfo:   record.Target,
		Sources:      record.Sources,
		Breaches:     record.BreachReport(),
		Correlations: s.correlator.Correlate(record),
		Warnings:     warnings(record),
	}
	logger.Info("Investigation complete",
		zap.Int("sources", len(calls)),
		zap.Int("warnings", len(snap.Warnings)),
		zap.String("confidence", snap.Correlations.Summary.ConfidenceLevel),
	)
	return snap, nil
}

// plan pairs every connector with each supplied identifier kind it supports.
func (s *Service) plan(target domain.Target) ([]call, []ports.Connector) {
	var (
		calls []call
		used  []ports.Connector
	)
	ids := target.Identifiers()
	for _, conn := range s.connectors {
		applies := false
		for _, id := range ids {
			if conn.Supports(id.Kind) {
				calls = append(calls, call{conn: conn, id: id})
				applies = true
			}
		}
		if applies {
			used = append(used, conn)
		}
	}
	return calls, used
}

type outcome struct {
	res domain.SourceResult
	err error
}

// invoke runs one connector call under its own timeout. Panics, errors and
// timeouts come back as a failed SourceResult; nothing propagates.
func (s *Service) invoke(parent context.Context, c call) domain.SourceResult {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("connector panic: %v", r)}
			}
		}()
		res, err := c.conn.Invoke(ctx, c.id)
		ch <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case out = <-ch:
	case <-ctx.Done():
		out = outcome{err: ctx.Err()}
	}
	return settle(c, out)
}

func settle(c call, out outcome) domain.SourceResult {
	res := out.res
	if res.Source == "" {
		res.Source = c.conn.Name()
	}
	if res.Category == "" {
		res.Category = c.conn.Category()
	}
	switch {
	case out.err == nil:
		if res.Status == "" {
			res.Status = domain.StatusOK
		}
	case errors.Is(out.err, domain.ErrRateLimited):
		res.Status = domain.StatusRateLimited
		res.Error = out.err.Error()
	case errors.Is(out.err, context.DeadlineExceeded):
		res.Status = domain.StatusError
		res.Error = "timeout: " + out.err.Error()
	default:
		res.Status = domain.StatusError
		res.Error = out.err.Error()
	}
	return res
}

// release closes every connector used in this run, whatever happened to it.
func (s *Service) release(logger *zap.Logger, used []ports.Connector) {
	for _, conn := range used {
		if err := conn.Close(); err != nil {
			logger.Warn("Connector cleanup failed", zap.String("source", conn.Name()), zap.Error(err))
		}
	}
}

// aggregator serializes writes into the record while fan-out is running.
type aggregator struct {
	mu     sync.Mutex
	record domain.AggregateRecord
	frozen bool
}

func (a *aggregator) merge(res domain.SourceResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen {
		return
	}
	a.record.Merge(res)
}

func (a *aggregator) freeze() domain.AggregateRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = true
	return a.record
}

// warnings lists sources the user should know about, in a stable order.
func warnings(record domain.AggregateRecord) []string {
	out := []string{}
	record.Each(func(res domain.SourceResult) {
		switch res.Status.Outcome() {
		case domain.OutcomeUnavailable:
			msg := res.Warning
			if msg == "" {
				msg = "credentials required"
			}
			out = append(out, fmt.Sprintf("%s/%s: %s", res.Category, res.Source, msg))
		case domain.OutcomeFailed:
			out = append(out, fmt.Sprintf("%s/%s: %s (%s)", res.Category, res.Source, res.Status, res.Error))
		}
	})
	sort.Strings(out)
	return out
}
