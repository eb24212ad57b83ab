package xhstest

import "fmt"

// Page is the data object of a cursor-paginated response
type Page map[string]interface{}

// NotesPage builds a user notes page with n notes numbered from start.
// An empty cursor omits the cursor key.
func NotesPage(start, n int, cursor string, hasMore bool) Page {
	notes := make([]map[string]interface{}, n)
	for i := range notes {
		notes[i] = map[string]interface{}{
			"note_id":       fmt.Sprintf("n%d", start+i),
			"display_title": fmt.Sprintf("note %d", start+i),
			"type":          "normal",
			"xsec_token":    "tok",
			"user":          map[string]interface{}{"user_id": "u1", "nickname": "alice"},
			"interact_info": map[string]interface{}{"liked_count": fmt.Sprint(start + i)},
		}
	}
	p := Page{"notes": notes, "has_more": hasMore}
	if cursor != "" {
		p["cursor"] = cursor
	}
	return p
}

// SearchPage builds a note search page with n items numbered from start
func SearchPage(start, n int, hasMore bool) Page {
	items := make([]map[string]interface{}, n)
	for i := range items {
		items[i] = map[string]interface{}{
			"id":         fmt.Sprintf("s%d", start+i),
			"model_type": "note",
			"xsec_token": "tok",
			"note_card": map[string]interface{}{
				"type":          "normal",
				"display_title": fmt.Sprintf("result %d", start+i),
				"user":          map[string]interface{}{"user_id": "u2", "nick_name": "bob"},
				"interact_info": map[string]interface{}{"liked_count": "1.2万"},
			},
		}
	}
	return Page{"items": items, "has_more": hasMore}
}

// UsersPage builds a user search page with n users numbered from start
func UsersPage(start, n int, hasMore bool) Page {
	users := make([]map[string]interface{}, n)
	for i := range users {
		users[i] = map[string]interface{}{
			"id":         fmt.Sprintf("u%d", start+i),
			"name":       fmt.Sprintf("user %d", start+i),
			"fans":       "12",
			"note_count": 3,
		}
	}
	return Page{"users": users, "has_more": hasMore}
}

// HomefeedPage builds a homefeed page with n items numbered from start
func HomefeedPage(start, n int, cursorScore string) Page {
	p := SearchPage(start, n, false)
	delete(p, "has_more")
	p["cursor_score"] = cursorScore
	return p
}

// CommentsPage builds a comment page. Each comment id in ids gets the given
// reply cursor and has-more flag.
func CommentsPage(ids []string, cursor string, hasMore, repliesMore bool) Page {
	comments := make([]map[string]interface{}, len(ids))
	for i, id := range ids {
		comments[i] = map[string]interface{}{
			"id":                   id,
			"note_id":              "note1",
			"content":              "comment " + id,
			"user_info":            map[string]interface{}{"user_id": "u3", "nickname": "carol"},
			"sub_comment_count":    "2",
			"sub_comment_cursor":   id + "-c0",
			"sub_comment_has_more": repliesMore,
			"sub_comments":         []interface{}{},
		}
	}
	p := Page{"comments": comments, "has_more": hasMore}
	if cursor != "" {
		p["cursor"] = cursor
	}
	return p
}

// MessagesPage builds a message feed page with n events numbered from start
func MessagesPage(start, n int, cursor string, hasMore bool) Page {
	msgs := make([]map[string]interface{}, n)
	for i := range msgs {
		msgs[i] = map[string]interface{}{
			"id":        fmt.Sprintf("m%d", start+i),
			"type":      "mention/comment",
			"title":     "mentioned you",
			"time":      1700000000 + start + i,
			"user_info": map[string]interface{}{"user_id": "u4", "nickname": "dave"},
		}
	}
	p := Page{"message_list": msgs, "has_more": hasMore}
	if cursor != "" {
		p["cursor"] = cursor
	}
	return p
}

// NoteFeed builds the note detail response for id
func NoteFeed(id, kind string, images ...string) Page {
	list := make([]map[string]interface{}, len(images))
	for i, u := range images {
		list[i] = map[string]interface{}{"url_default": u, "width": 1080, "height": 1440}
	}
	return Page{"items": []map[string]interface{}{{
		"id":         id,
		"model_type": "note",
		"note_card": map[string]interface{}{
			"note_id":       id,
			"type":          kind,
			"title":         "title " + id,
			"desc":          "desc " + id,
			"user":          map[string]interface{}{"user_id": "u1", "nickname": "alice"},
			"interact_info": map[string]interface{}{"liked_count": "10", "comment_count": 2},
			"image_list":    list,
			"tag_list":      []map[string]interface{}{{"id": "t1", "name": "food", "type": "topic"}},
			"time":          1700000000000,
			"ip_location":   "Shanghai",
		},
	}}}
}
