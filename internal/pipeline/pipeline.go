// Package pipeline runs one daily log: fetch, bucket, compose, publish.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/nikki/internal/compose"
	"github.com/user/nikki/internal/metrics"
	"github.com/user/nikki/internal/types"
	"github.com/user/nikki/internal/window"
)

// Status is the result of a run that did not fail.
type Status string

const (
	StatusPublished Status = "published"
	StatusNoLogs    Status = "no_logs"
	StatusDryRun    Status = "dry_run"
)

// Outcome describes a completed run.
type Outcome struct {
	RunID        types.RunID `json:"run_id"`
	Date         string      `json:"date"`
	Status       Status      `json:"status"`
	MessageCount int         `json:"message_count"`
	DocumentName string      `json:"document_name,omitempty"`
	URL          string      `json:"url,omitempty"`
}

// Pipeline wires a source and a publisher. Each Run is independent and
// strictly sequential; nothing is retried.
type Pipeline struct {
	source    types.Source
	publisher types.Publisher
	channel   string
	loc       *time.Location
	now       func() time.Time
	runs      types.RunStore
	bucketing []window.Option
	logger    *slog.Logger
	dryRun    bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChannel sets the channel passed to the source.
func WithChannel(channel string) Option {
	return func(p *Pipeline) { p.channel = channel }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunStore records every run's outcome in store.
func WithRunStore(store types.RunStore) Option {
	return func(p *Pipeline) { p.runs = store }
}

// WithBucketOptions passes opts to window.Bucket.
func WithBucketOptions(opts ...window.Option) Option {
	return func(p *Pipeline) { p.bucketing = append(p.bucketing, opts...) }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithDryRun marks runs as dry runs: the publisher is expected not to post,
// and runs are recorded with StatusDryRun.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// New creates a Pipeline cutting windows in the fixed JST offset.
func New(source types.Source, publisher types.Publisher, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    source,
		publisher: publisher,
		loc:       window.JST,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type runConfig struct {
	target  *window.Target
	trigger string
}

// RunOption configures a single run.
type RunOption func(*runConfig)

// ForDate overrides the target day, which is otherwise yesterday.
func ForDate(target window.Target) RunOption {
	return func(c *runConfig) { c.target = &target }
}

// WithTrigger labels what started the run in the ledger and logs.
func WithTrigger(trigger string) RunOption {
	return func(c *runConfig) { c.trigger = trigger }
}

// Run executes one run. An empty window is not an error: it returns an
// Outcome with StatusNoLogs and publishes nothing. Failures are *Error.
func (p *Pipeline) Run(ctx context.Context, opts ...RunOption) (*Outcome, error) {
	rc := runConfig{trigger: "manual"}
	for _, opt := range opts {
		opt(&rc)
	}

	started := p.now()
	target := window.Yesterday(started, p.loc)
	if rc.target != nil {
		target = *rc.target
	}

	outcome := &Outcome{RunID: types.NewRunID(), Date: target.String()}
	logger := p.logger.With("run_id", string(outcome.RunID), "date", outcome.Date, "trigger", rc.trigger)

	err := p.run(ctx, logger, target, outcome)
	p.record(ctx, logger, rc.trigger, started, outcome, err)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, target window.Target, outcome *Outcome) error {
	logger.Info("fetching history", "channel", p.channel)
	msgs, err := p.source.History(ctx, p.channel)
	if err != nil {
		return fetchError(err)
	}
	logger.Debug("fetched history", "messages", len(msgs))

	buckets, err := window.Bucket(target, msgs, p.bucketing...)
	if err != nil {
		return &Error{Kind: KindMalformedTimestamp, Stage: "bucket", Err: err}
	}
	outcome.MessageCount = buckets.Len()

	if buckets.Empty() {
		outcome.Status = StatusNoLogs
		logger.Info("no logs in window")
		return nil
	}

	doc, err := compose.Compose(target, buckets)
	if err != nil {
		return err
	}
	outcome.DocumentName = doc.Name

	logger.Info("publishing", "document", doc.Name, "messages", outcome.MessageCount, "hours", len(buckets.Hours()))
	pub, err := p.publisher.Publish(ctx, doc)
	if err != nil {
		return publishError(err)
	}
	outcome.Status = StatusPublished
	if p.dryRun {
		outcome.Status = StatusDryRun
	}
	if pub != nil {
		outcome.URL = pub.URL
	}
	logger.Info("published", "document", doc.Name, "url", outcome.URL)
	return nil
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, trigger string, started time.Time, outcome *Outcome, runErr error) {
	finished := p.now()
	rec := &types.RunRecord{
		ID:           outcome.RunID,
		Trigger:      trigger,
		StartedAt:    started,
		FinishedAt:   finished,
		Date:         outcome.Date,
		MessageCount: outcome.MessageCount,
		DocumentName: outcome.DocumentName,
		URL:          outcome.URL,
	}
	switch {
	case runErr != nil:
		rec.Status = types.RunFailed
		rec.ErrorKind = string(KindOf(runErr))
		rec.Error = runErr.Error()
		logger.Error("run failed", "kind", rec.ErrorKind, "error", runErr)
	case outcome.Status == StatusNoLogs:
		rec.Status = types.RunNoLogs
	case outcome.Status == StatusDryRun:
		rec.Status = types.RunDryRun
	default:
		rec.Status = types.RunPublished
	}
	metrics.ObserveRun(string(rec.Status), rec.MessageCount, finished.Sub(started), finished)

	if p.runs == nil {
		return
	}
	if err := p.runs.Append(ctx, rec); err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}
