// Package scraper runs whole crawls against the xiaohongshu web API.
//
// A Scraper ties the API client to the crawl engine. Each crawl takes the
// web URL of a user or note (with its xsec_token query), walks every page
// the stream offers and returns a crawl.Result: the items collected so far,
// whether the crawl completed, and the reason it stopped when it did not.
//
// User note lists, message feeds and comment trees stop at the first failed
// page and keep what was already collected. Searches and the homefeed are
// read until the requested number of items is reached:
//
//	s, err := scraper.New(cfg, log)
//	if err != nil {
//	    return err
//	}
//	res := s.SearchNotes(ctx, xhs.SearchQuery{Keyword: "coffee"}, 40)
//	if !res.OK {
//	    log.Warn(res.Message)
//	}
//
// Requests share one token bucket built from the rate_limit config section.
// Reply pages of a comment are additionally spaced by the page delay.
//
// SaveNoteMedia downloads a note's images and video through a worker pool
// into a storage.Manager, skipping files already on disk.
package scraper
