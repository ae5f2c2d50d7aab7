package window

import (
	"errors"
	"log/slog"

	"github.com/user/nikki/internal/types"
)

// Buckets holds message texts per hour of day. Texts within an hour keep the
// order they were added in.
type Buckets struct {
	hours [24][]string
	count int
}

// Hour is one non-empty hour of a Buckets.
type Hour struct {
	Hour  int
	Texts []string
}

// Add appends text to the bucket for hour. Hours outside 0-23 are ignored.
func (b *Buckets) Add(hour int, text string) {
	if hour < 0 || hour >= len(b.hours) {
		return
	}
	b.hours[hour] = append(b.hours[hour], text)
	b.count++
}

// Hour returns the texts stored for hour h.
func (b *Buckets) Hour(h int) []string {
	if h < 0 || h >= len(b.hours) {
		return nil
	}
	return b.hours[h]
}

// Hours returns the non-empty hours in ascending order.
func (b *Buckets) Hours() []Hour {
	var out []Hour
	for h, texts := range b.hours {
		if len(texts) == 0 {
			continue
		}
		out = append(out, Hour{Hour: h, Texts: texts})
	}
	return out
}

// Len returns the total number of texts across all hours.
func (b *Buckets) Len() int { return b.count }

// Empty reports whether no message fell inside the window.
func (b *Buckets) Empty() bool { return b.count == 0 }

type bucketOptions struct {
	skipMalformed bool
	logger        *slog.Logger
}

// Option configures Bucket.
type Option func(*bucketOptions)

// SkipMalformed logs and drops messages whose timestamp does not parse
// instead of aborting.
func SkipMalformed(logger *slog.Logger) Option {
	return func(o *bucketOptions) {
		o.skipMalformed = true
		o.logger = logger
	}
}

// Bucket groups the texts of msgs that fall on the target date by hour, in
// source order. Messages on other dates are dropped. The first malformed
// timestamp aborts with a *MalformedTimestampError unless SkipMalformed is
// given.
func Bucket(target Target, msgs []types.RawMessage, opts ...Option) (*Buckets, error) {
	var o bucketOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	b := &Buckets{}
	for i, msg := range msgs {
		ts, err := ParseTimestamp(msg.Timestamp)
		if err != nil {
			var mt *MalformedTimestampError
			if o.skipMalformed && errors.As(err, &mt) {
				o.logger.Warn("skipping message with malformed timestamp", "index", i, "ts", msg.Timestamp)
				continue
			}
			return nil, err
		}
		if !target.Contains(ts) {
			continue
		}
		b.Add(ts.In(target.Location()).Hour(), msg.Text)
	}
	return b, nil
}
