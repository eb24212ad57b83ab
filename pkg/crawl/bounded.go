package crawl

import "context"

// WalkBounded collects at most target items with a Strict walk. The last page
// may overshoot; the result is truncated to the first target items.
func WalkBounded[T any](ctx context.Context, fetch PageFetcher[T], target int, opts Options) Result[T] {
	if target <= 0 {
		return Result[T]{OK: true, Message: collected(0)}
	}

	opts.Policy = Strict
	opts.MaxItems = target
	res := Walk(ctx, fetch, opts)

	if len(res.Data) > target {
		res.Data = res.Data[:target:target]
		if res.OK {
			res.Message = collected(target)
		}
	}
	return res
}
