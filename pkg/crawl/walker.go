package crawl

import (
	"context"

	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/ratelimit"
)

// Options configures a single walk
type Options struct {
	// Name identifies the stream in logs
	Name   string
	Policy Policy
	// MaxItems stops the walk once this many items are collected; 0 means unbounded
	MaxItems int
	// ExclusiveBound stops only once the count exceeds MaxItems
	ExclusiveBound bool
	// Cursor seeds the first fetch
	Cursor string
	// Pacer is called between two fetches, never before the first
	Pacer  ratelimit.Pacer
	Logger logger.Logger
}

func (o Options) reached(n int) bool {
	if o.MaxItems <= 0 {
		return false
	}
	if o.ExclusiveBound {
		return n > o.MaxItems
	}
	return n >= o.MaxItems
}

// Walk follows cursors from opts.Cursor until the stream ends, the bound is
// reached or a fetch fails. A page whose response has no cursor key ends the
// walk without its items being kept. Input errors fail the result whatever
// the policy.
func Walk[T any](ctx context.Context, fetch PageFetcher[T], opts Options) Result[T] {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	name := opts.Name
	if name == "" {
		name = "stream"
	}
	log = log.WithField("stream", name)

	cursor := opts.Cursor
	var acc []T

	for page := 1; ; page++ {
		if page > 1 && opts.Pacer != nil {
			if err := opts.Pacer.Pause(ctx, page-1); err != nil {
				return stop(log, opts.Policy, acc, page, err)
			}
		}

		p, err := fetch(ctx, cursor)
		if err == nil && p == nil {
			err = xerrors.Schema(name, "page %d: no page returned", page)
		}
		if err != nil {
			return stop(log, opts.Policy, acc, page, err)
		}

		if !p.HasCursor {
			logger.LogWalkStop(log, name, "cursor absent", page, len(acc))
			return Result[T]{OK: true, Message: collected(len(acc)), Data: acc}
		}

		acc = append(acc, p.Items...)
		cursor = p.Cursor
		logger.LogPage(log, name, page, len(p.Items), len(acc), cursor)

		reason := ""
		switch {
		case len(p.Items) == 0:
			reason = "empty page"
		case !p.HasMore:
			reason = "has_more=false"
		case opts.reached(len(acc)):
			reason = "max items reached"
		}
		if reason != "" {
			logger.LogWalkStop(log, name, reason, page, len(acc))
			return Result[T]{OK: true, Message: collected(len(acc)), Data: acc}
		}
	}
}

func stop[T any](log logger.Logger, policy Policy, acc []T, page int, err error) Result[T] {
	fields := map[string]interface{}{
		"page":      page,
		"collected": len(acc),
		"policy":    policy.String(),
	}

	if policy == Lenient && !xerrors.IsFatal(err) {
		log.WithError(err).WarnWithFields("Page fetch failed, keeping partial results", fields)
		return Result[T]{OK: true, Message: PartialMessage, Data: acc, Err: err}
	}

	log.WithError(err).ErrorWithFields("Page fetch failed", fields)
	return Result[T]{OK: false, Message: err.Error(), Data: acc, Err: err}
}
