package crawl

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endless serves pages of 20 consecutive ints until total is exhausted
type endless struct {
	total int
	calls int
}

func (e *endless) fetch(ctx context.Context, cursor string) (*Page[int], error) {
	e.calls++
	start := 0
	if cursor != "" {
		var err error
		if start, err = strconv.Atoi(cursor); err != nil {
			return nil, err
		}
	}
	n := 20
	if e.total >= 0 && start+n > e.total {
		n = e.total - start
	}
	return &Page[int]{
		Items:     seq(start, n),
		Cursor:    strconv.Itoa(start + n),
		HasCursor: true,
		HasMore:   true,
	}, nil
}

func TestWalkBoundedTruncatesExactly(t *testing.T) {
	for _, n := range []int{1, 7, 20, 21, 45, 100} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			f := &endless{total: -1}

			res := WalkBounded(context.Background(), f.fetch, n, Options{})

			require.True(t, res.OK)
			assert.Equal(t, seq(0, n), res.Data)
			assert.Equal(t, (n+19)/20, f.calls)
			assert.Equal(t, "collected "+strconv.Itoa(n)+" items", res.Message)
		})
	}
}

func TestWalkBoundedStreamShorterThanTarget(t *testing.T) {
	f := &endless{total: 50}

	res := WalkBounded(context.Background(), f.fetch, 80, Options{})

	require.True(t, res.OK)
	assert.Equal(t, seq(0, 50), res.Data)
}

func TestWalkBoundedExclusiveOvershootsThenTruncates(t *testing.T) {
	f := &endless{total: -1}

	res := WalkBounded(context.Background(), f.fetch, 40, Options{ExclusiveBound: true})

	assert.Equal(t, 3, f.calls, "needs more than 40 before stopping")
	assert.Equal(t, seq(0, 40), res.Data)
}

func TestWalkBoundedIsAlwaysStrict(t *testing.T) {
	f := &scripted[int]{steps: []step[int]{
		more(seq(0, 20), "20"),
		failed(errors.New("461 captcha")),
	}}

	res := WalkBounded(context.Background(), f.fetch, 100, Options{Policy: Lenient})

	assert.False(t, res.OK)
	assert.Equal(t, "461 captcha", res.Message)
	assert.Equal(t, seq(0, 20), res.Data)
}

func TestWalkBoundedZeroTarget(t *testing.T) {
	f := &endless{total: -1}

	res := WalkBounded(context.Background(), f.fetch, 0, Options{})

	assert.True(t, res.OK)
	assert.Empty(t, res.Data)
	assert.Zero(t, f.calls)
}
