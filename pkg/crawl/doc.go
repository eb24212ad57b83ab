// Package crawl is the pagination engine behind every xhscrawl command.
//
// A resource stream is described by a PageFetcher that turns a cursor into a
// decoded Page. Walk drives a fetcher until the stream ends:
//
//   - a response without a cursor key ends the walk, and that page's items
//     are dropped
//   - an empty page or has_more=false ends the walk after the page is kept
//   - Options.MaxItems bounds the walk; WalkBounded also truncates
//
// Failures are handled by a Policy. Strict returns OK=false with the error
// text as message. Lenient logs a warning and returns OK=true with the
// message "partial". Collected items are returned in both cases, and input
// errors always fail.
//
// CommentCrawler combines two lenient walks: one over the top-level comments
// of a note, then one per comment over its replies, pausing with a
// ratelimit.Pacer between reply pages.
package crawl
