package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"xhscrawl/pkg/models"
)

// NoteMetadata is the flat record of a note used by every export format
type NoteMetadata struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Desc       string `json:"desc,omitempty"`
	Type       string `json:"type"`
	XsecToken  string `json:"xsec_token,omitempty"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`

	Likes    string `json:"likes"`
	Collects string `json:"collects,omitempty"`
	Comments string `json:"comments,omitempty"`
	Shares   string `json:"shares,omitempty"`

	Tags       []string  `json:"tags,omitempty"`
	Images     []string  `json:"images,omitempty"`
	IPLocation string    `json:"ip_location,omitempty"`
	Published  time.Time `json:"published,omitempty"`
}

// FromNote flattens a note from any stream
func FromNote(n models.Note) *NoteMetadata {
	author := n.Author()
	meta := &NoteMetadata{
		ID:         n.Key(),
		Title:      n.Title(),
		Type:       n.Kind(),
		XsecToken:  n.XsecToken,
		AuthorID:   author.UserID,
		AuthorName: author.Name(),
		Likes:      n.Likes(),
	}

	info := n.InteractInfo
	if card := n.NoteCard; card != nil {
		if info == nil {
			info = &card.InteractInfo
		}
		meta.Desc = card.Desc
		meta.IPLocation = card.IPLocation
		if card.Time > 0 {
			meta.Published = time.UnixMilli(card.Time).UTC()
		}
		for _, tag := range card.TagList {
			meta.Tags = append(meta.Tags, tag.Name)
		}
		for _, img := range card.ImageList {
			if u := img.Best(); u != "" {
				meta.Images = append(meta.Images, u)
			}
		}
	}
	if info != nil {
		meta.Collects = info.CollectedCount.String()
		meta.Comments = info.CommentCount.String()
		meta.Shares = info.ShareCount.String()
	}
	if len(meta.Images) == 0 {
		cover := n.Cover
		if cover == nil && n.NoteCard != nil {
			cover = n.NoteCard.Cover
		}
		if cover != nil && cover.Best() != "" {
			meta.Images = []string{cover.Best()}
		}
	}
	return meta
}

// CommentMetadata is the flat record of a comment or reply
type CommentMetadata struct {
	ID         string    `json:"id"`
	ParentID   string    `json:"parent_id,omitempty"`
	NoteID     string    `json:"note_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Likes      string    `json:"likes"`
	IPLocation string    `json:"ip_location,omitempty"`
	Created    time.Time `json:"created,omitempty"`
}

// FromComments flattens a comment tree. Each top-level comment is followed
// by its replies, which carry the top-level comment's id as ParentID.
func FromComments(comments []*models.Comment) []CommentMetadata {
	var out []CommentMetadata
	var add func(c *models.Comment, parent string)
	add = func(c *models.Comment, parent string) {
		if c == nil {
			return
		}
		row := CommentMetadata{
			ID:         c.ID,
			ParentID:   parent,
			NoteID:     c.NoteID,
			AuthorID:   c.UserInfo.UserID,
			AuthorName: c.UserInfo.Name(),
			Content:    c.Content,
			Likes:      c.LikeCount.String(),
			IPLocation: c.IPLocation,
		}
		if c.CreateTime > 0 {
			row.Created = time.UnixMilli(c.CreateTime).UTC()
		}
		out = append(out, row)
		for _, r := range c.SubComments {
			add(r, c.ID)
		}
	}
	for _, c := range comments {
		add(c, "")
	}
	return out
}

// UserMetadata is the flat record of a searched user
type UserMetadata struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RedID     string `json:"red_id,omitempty"`
	Fans      string `json:"fans"`
	NoteCount string `json:"note_count"`
	SubTitle  string `json:"sub_title,omitempty"`
}

// FromUser flattens a user search result
func FromUser(u models.User) UserMetadata {
	return UserMetadata{
		ID:        u.ID,
		Name:      u.Name,
		RedID:     u.RedID,
		Fans:      u.Fans.String(),
		NoteCount: u.NoteCount.String(),
		SubTitle:  u.SubTitle,
	}
}

// MessageMetadata is the flat record of a message feed entry
type MessageMetadata struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Time     time.Time `json:"time,omitempty"`
}

// FromMessage flattens a message feed entry
func FromMessage(m models.MessageEvent) MessageMetadata {
	row := MessageMetadata{
		ID:       m.ID,
		Type:     m.Type,
		Title:    m.Title,
		UserID:   m.UserInfo.UserID,
		UserName: m.UserInfo.Name(),
	}
	if m.Time > 0 {
		row.Time = time.Unix(m.Time, 0).UTC()
	}
	return row
}

// Reader returns the note record as indented JSON, ready for storage
func (m *NoteMetadata) Reader() (io.Reader, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return bytes.NewReader(data), nil
}

// FileName is the name of the note's metadata file
func (m *NoteMetadata) FileName() string {
	return m.ID + ".json"
}

// Snippet returns text on one line, cut to at most maxRunes runes
func Snippet(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if maxRunes <= 3 || len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes-3]) + "..."
}
