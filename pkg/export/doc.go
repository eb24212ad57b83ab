// Package export writes crawl results to the output directory.
//
// A crawl.Result is first turned into a Dataset with Notes, Comments, Users
// or Messages. Each format then renders the dataset:
//
//	json    the {ok, message, data} envelope with the raw API items
//	xlsx    one sheet of flat rows
//	md      a status table and a rows table
//	sqlite  rows upserted into xhscrawl.db, one table per item kind
//
// Comment trees are flattened for the table formats; replies carry the id
// of their top-level comment in parent_id.
package export
