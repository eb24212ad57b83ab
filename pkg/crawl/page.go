package crawl

import (
	"context"
	"fmt"
)

// Page is one decoded page of a resource stream
type Page[T any] struct {
	Items []T
	// Cursor points at the next page; only meaningful when HasCursor is set
	Cursor string
	// HasCursor is false when the response carried no cursor key at all
	HasCursor bool
	HasMore   bool
}

// PageFetcher fetches the page that starts at cursor
type PageFetcher[T any] func(ctx context.Context, cursor string) (*Page[T], error)

// Policy decides what a walk does when a page cannot be fetched
type Policy int

const (
	// Strict stops the walk and fails the result, keeping collected items
	Strict Policy = iota
	// Lenient logs a warning and stops the walk with a successful, partial result
	Lenient
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// PartialMessage is the Result message of a lenient walk that absorbed an error
const PartialMessage = "partial"

// Result is the outcome of a crawl. Data is kept even when OK is false.
type Result[T any] struct {
	OK      bool
	Message string
	Data    []T
	// Err is the error that ended the walk, whether or not the policy absorbed it
	Err error
}

// Partial reports whether the walk stopped on an error it absorbed
func (r Result[T]) Partial() bool {
	return r.OK && r.Err != nil
}

func collected(n int) string {
	return fmt.Sprintf("collected %d items", n)
}
