package availability

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxpal/internal/api/sncf"
	"github.com/danpilch/maxpal/internal/tz"
)

const (
	DefaultMaxPages = 50
	DefaultDeadline = 25 * time.Second
)

var errPageLimit = errors.New("page limit reached")

// Searcher fetches one page of journeys departing from outward onwards.
type Searcher interface {
	SearchJourneys(ctx context.Context, origin, destination string, outward time.Time, cardNumber string) ([]sncf.Journey, error)
}

// Query is a free seat lookup between two stations over a departure window.
type Query struct {
	Origin      string
	Destination string
	From        time.Time
	To          time.Time
	CardNumber  string
}

// Result lists the distinct Paris departure hours with a free seat.
type Result struct {
	Available bool     `json:"isTgvmaxAvailable"`
	Hours     []string `json:"hours"`
}

// Options bounds the pagination loop.
type Options struct {
	MaxPages int
	Deadline time.Duration
}

// Resolver pages through the journey search until the window is covered.
type Resolver struct {
	searcher Searcher
	logger   *logrus.Logger
	maxPages int
	deadline time.Duration
}

func NewResolver(searcher Searcher, logger *logrus.Logger, opts Options) *Resolver {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	return &Resolver{
		searcher: searcher,
		logger:   logger,
		maxPages: opts.MaxPages,
		deadline: opts.Deadline,
	}
}

// Resolve never fails: an upstream error stops paging and the journeys
// collected so far are used.
func (r *Resolver) Resolve(ctx context.Context, q Query) Result {
	ctx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	var (
		journeys []sncf.Journey
		pages    int
	)
	for page, err := range r.pages(ctx, q) {
		if err != nil {
			r.logFailure(q, pages, err)
			break
		}
		pages++
		journeys = append(journeys, page...)
	}

	result := collect(journeys, tz.In(q.To))

	r.logger.WithFields(logrus.Fields{
		"origin":      q.Origin,
		"destination": q.Destination,
		"pages":       pages,
		"journeys":    len(journeys),
		"hours":       result.Hours,
	}).Debug("availability resolved")

	return result
}

// pages lazily fetches successive pages. Each request starts at the last
// departure of the previous page.
func (r *Resolver) pages(ctx context.Context, q Query) iter.Seq2[[]sncf.Journey, error] {
	return func(yield func([]sncf.Journey, error) bool) {
		cursor := tz.In(q.From)
		windowEnd := tz.In(q.To)

		for n := 0; ; n++ {
			if n == r.maxPages {
				yield(nil, errPageLimit)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, err := r.searcher.SearchJourneys(ctx, q.Origin, q.Destination, cursor, q.CardNumber)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}

			next, more := advance(cursor, windowEnd, page)
			if !more {
				return
			}
			cursor = next
		}
	}
}

// advance decides whether another page is needed after page was fetched at
// cursor. It looks at the raw last departure, before any filtering.
func advance(cursor, windowEnd time.Time, page []sncf.Journey) (time.Time, bool) {
	if len(page) == 0 {
		return cursor, false
	}
	last := tz.In(page[len(page)-1].Departure)
	if !last.Before(windowEnd) || last.Equal(cursor) {
		return last, false
	}
	return last, true
}

func collect(journeys []sncf.Journey, windowEnd time.Time) Result {
	hours := make([]string, 0)
	seen := make(map[string]struct{})
	for _, j := range journeys {
		if !j.IsFree() || j.Departure.After(windowEnd) {
			continue
		}
		hour := tz.HourMinute(j.Departure)
		if _, ok := seen[hour]; ok {
			continue
		}
		seen[hour] = struct{}{}
		hours = append(hours, hour)
	}
	return Result{Available: len(hours) > 0, Hours: hours}
}

func (r *Resolver) logFailure(q Query, pages int, err error) {
	fields := logrus.Fields{
		"origin":      q.Origin,
		"destination": q.Destination,
		"page":        pages + 1,
		"error":       err,
	}

	if errors.Is(err, errPageLimit) {
		fields["max_pages"] = r.maxPages
		r.logger.WithFields(fields).Warn("stopped paging before window end")
		return
	}

	var perr *sncf.ProtocolError
	if errors.As(err, &perr) {
		fields["status"] = perr.StatusCode
		fields["reason"] = perr.Reason
		fields["label"] = perr.Label
	}
	r.logger.WithFields(fields).Error("sncf api error")
}
