package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString accepts a JSON string or number. The API is inconsistent about
// counters ("1.2万" vs 12000) and cursors.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("flex string: %w", err)
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// Int parses the value as an integer, returning 0 when it is not numeric
func (f FlexString) Int() int64 {
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Target locates a note or user page
type Target struct {
	ID         string `json:"id"`
	XsecToken  string `json:"xsec_token"`
	XsecSource string `json:"xsec_source"`
	URL        string `json:"url,omitempty"`
}

// UserBrief is the author block embedded in notes, comments and messages
type UserBrief struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname,omitempty"`
	NickName  string `json:"nick_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	XsecToken string `json:"xsec_token,omitempty"`
}

// Name returns whichever nickname field the endpoint filled in
func (u UserBrief) Name() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.NickName
}

// InteractInfo holds engagement counters
type InteractInfo struct {
	Liked          bool       `json:"liked,omitempty"`
	LikedCount     FlexString `json:"liked_count,omitempty"`
	CollectedCount FlexString `json:"collected_count,omitempty"`
	CommentCount   FlexString `json:"comment_count,omitempty"`
	ShareCount     FlexString `json:"share_count,omitempty"`
}

// Image is one picture of a note, or a note cover
type Image struct {
	URL        string `json:"url,omitempty"`
	URLDefault string `json:"url_default,omitempty"`
	URLPre     string `json:"url_pre,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// Best returns the highest quality URL available
func (i Image) Best() string {
	switch {
	case i.URLDefault != "":
		return i.URLDefault
	case i.URL != "":
		return i.URL
	default:
		return i.URLPre
	}
}

// Tag is a topic attached to a note
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NoteCard is the note body used by search, homefeed and note detail
type NoteCard struct {
	NoteID       string       `json:"note_id,omitempty"`
	Type         string       `json:"type,omitempty"`
	DisplayTitle string       `json:"display_title,omitempty"`
	Title        string       `json:"title,omitempty"`
	Desc         string       `json:"desc,omitempty"`
	User         UserBrief    `json:"user"`
	InteractInfo InteractInfo `json:"interact_info"`
	Cover        *Image       `json:"cover,omitempty"`
	ImageList    []Image      `json:"image_list,omitempty"`
	TagList      []Tag        `json:"tag_list,omitempty"`
	Time         int64        `json:"time,omitempty"`
	IPLocation   string       `json:"ip_location,omitempty"`
}

// Note is a note as listed by any note stream. User pages fill the flat
// fields; search and homefeed wrap them in NoteCard.
type Note struct {
	ID           string        `json:"id,omitempty"`
	NoteID       string        `json:"note_id,omitempty"`
	ModelType    string        `json:"model_type,omitempty"`
	XsecToken    string        `json:"xsec_token,omitempty"`
	Type         string        `json:"type,omitempty"`
	DisplayTitle string        `json:"display_title,omitempty"`
	User         *UserBrief    `json:"user,omitempty"`
	InteractInfo *InteractInfo `json:"interact_info,omitempty"`
	Cover        *Image        `json:"cover,omitempty"`
	NoteCard     *NoteCard     `json:"note_card,omitempty"`
}

// Key returns the note id regardless of which stream produced it
func (n Note) Key() string {
	switch {
	case n.NoteID != "":
		return n.NoteID
	case n.ID != "":
		return n.ID
	case n.NoteCard != nil:
		return n.NoteCard.NoteID
	default:
		return ""
	}
}

// Title returns the display title
func (n Note) Title() string {
	if n.DisplayTitle != "" {
		return n.DisplayTitle
	}
	if n.NoteCard != nil {
		if n.NoteCard.DisplayTitle != "" {
			return n.NoteCard.DisplayTitle
		}
		return n.NoteCard.Title
	}
	return ""
}

// Kind returns "normal" or "video"
func (n Note) Kind() string {
	if n.Type == "" && n.NoteCard != nil {
		return n.NoteCard.Type
	}
	return n.Type
}

// Author returns the note's author
func (n Note) Author() UserBrief {
	if n.User != nil {
		return *n.User
	}
	if n.NoteCard != nil {
		return n.NoteCard.User
	}
	return UserBrief{}
}

// Likes returns the liked count as reported
func (n Note) Likes() string {
	if n.InteractInfo != nil {
		return n.InteractInfo.LikedCount.String()
	}
	if n.NoteCard != nil {
		return n.NoteCard.InteractInfo.LikedCount.String()
	}
	return ""
}

// User is a user as returned by user search
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	RedID     string     `json:"red_id,omitempty"`
	Image     string     `json:"image,omitempty"`
	SubTitle  string     `json:"sub_title,omitempty"`
	Fans      FlexString `json:"fans,omitempty"`
	NoteCount FlexString `json:"note_count,omitempty"`
	XsecToken string     `json:"xsec_token,omitempty"`
}

// ReplyState records the outcome of crawling a comment's replies
type ReplyState string

const (
	// RepliesNotCrawled means no reply walk ran for the comment
	RepliesNotCrawled ReplyState = ""
	// RepliesComplete means the reply walk reached the end of the stream
	RepliesComplete ReplyState = "complete"
	// RepliesIncomplete means the reply walk stopped on a failure
	RepliesIncomplete ReplyState = "incomplete"
)

// Comment is a top-level comment or a reply. Only the reply walk for a
// top-level comment appends to its SubComments.
type Comment struct {
	ID                string     `json:"id"`
	NoteID            string     `json:"note_id"`
	Content           string     `json:"content"`
	CreateTime        int64      `json:"create_time,omitempty"`
	IPLocation        string     `json:"ip_location,omitempty"`
	LikeCount         FlexString `json:"like_count,omitempty"`
	Liked             bool       `json:"liked,omitempty"`
	UserInfo          UserBrief  `json:"user_info"`
	TargetComment     *Comment   `json:"target_comment,omitempty"`
	SubCommentCount   FlexString `json:"sub_comment_count,omitempty"`
	SubCommentCursor  string     `json:"sub_comment_cursor,omitempty"`
	SubCommentHasMore bool       `json:"sub_comment_has_more"`
	SubComments       []*Comment `json:"sub_comments"`
	ReplyState        ReplyState `json:"reply_state,omitempty"`
}

// ReplyCount returns the number of replies collected so far
func (c *Comment) ReplyCount() int {
	return len(c.SubComments)
}

// MessageEvent is an entry of the mentions, likes or connections feeds
type MessageEvent struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title,omitempty"`
	Time        int64           `json:"time,omitempty"`
	Score       FlexString      `json:"score,omitempty"`
	UserInfo    UserBrief       `json:"user_info"`
	ItemInfo    json.RawMessage `json:"item_info,omitempty"`
	CommentInfo json.RawMessage `json:"comment_info,omitempty"`
}

// Channel is a homefeed category
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnreadCount is the response of the unread counter endpoint
type UnreadCount struct {
	Unread      int `json:"unread_count"`
	Likes       int `json:"likes"`
	Connections int `json:"connections"`
	Mentions    int `json:"mentions"`
}
