package xhs

import (
	"bytes"
	"encoding/json"

	"xhscrawl/pkg/crawl"
	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/models"
)

// missingItems says what a response without its items key means
type missingItems int

const (
	itemsRequired missingItems = iota
	itemsEndStream
)

// missingCursor says what a response without its cursor key means
type missingCursor int

const (
	cursorDropsPage missingCursor = iota
	cursorEndsStream
	// cursorNone is for streams whose cursor is computed by the caller
	cursorNone
)

// pageShape names the keys of one stream's data object
type pageShape struct {
	items         string
	cursor        string
	onNoItems     missingItems
	onNoCursor    missingCursor
	ignoreHasMore bool
}

var (
	userNotesShape = pageShape{items: "notes", cursor: "cursor"}
	searchShape    = pageShape{items: "items", onNoItems: itemsEndStream, onNoCursor: cursorNone}
	usersShape     = pageShape{items: "users", onNoItems: itemsEndStream, onNoCursor: cursorNone}
	homefeedShape  = pageShape{items: "items", cursor: "cursor_score", onNoItems: itemsEndStream, ignoreHasMore: true}
	commentsShape  = pageShape{items: "comments", cursor: "cursor", onNoCursor: cursorEndsStream}
	messagesShape  = pageShape{items: "message_list", cursor: "cursor"}
)

// decodePage normalizes the data object of a paginated response
func decodePage[T any](op string, data json.RawMessage, shape pageShape) (*crawl.Page[T], error) {
	if isNull(data) {
		return nil, xerrors.Schema(op, "response has no data object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, xerrors.Schema(op, "data is not an object: %v", err)
	}

	page := &crawl.Page[T]{}

	rawItems, ok := fields[shape.items]
	if !ok || isNull(rawItems) {
		if shape.onNoItems == itemsRequired {
			return nil, xerrors.Schema(op, "missing key %q", shape.items)
		}
		return page, nil
	}
	if err := json.Unmarshal(rawItems, &page.Items); err != nil {
		return nil, xerrors.Schema(op, "cannot decode %q: %v", shape.items, err)
	}

	if raw, ok := fields["has_more"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &page.HasMore); err != nil {
			return nil, xerrors.Schema(op, "cannot decode has_more: %v", err)
		}
	}
	if shape.ignoreHasMore {
		page.HasMore = true
	}

	if shape.onNoCursor == cursorNone {
		return page, nil
	}

	rawCursor, ok := fields[shape.cursor]
	if !ok {
		if shape.onNoCursor == cursorEndsStream {
			page.HasCursor = true
			page.HasMore = false
		}
		return page, nil
	}
	var cursor models.FlexString
	if err := json.Unmarshal(rawCursor, &cursor); err != nil {
		return nil, xerrors.Schema(op, "cannot decode %q: %v", shape.cursor, err)
	}
	page.Cursor = cursor.String()
	page.HasCursor = true
	return page, nil
}

func decodeObject(op string, data json.RawMessage, v interface{}) error {
	if isNull(data) {
		return xerrors.Schema(op, "response has no data object")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return xerrors.Schema(op, "cannot decode data: %v", err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
