package xhs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"xhscrawl/pkg/crawl"
	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/models"
)

// get and post run a request and hand back the data object

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	env, err := c.Execute(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	env, err := c.Execute(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func requireID(op, what, id string) error {
	if strings.TrimSpace(id) == "" {
		return xerrors.Input(op, what+" is empty", nil)
	}
	return nil
}

// UserNotes fetches one page of the notes a user posted
func (c *Client) UserNotes(ctx context.Context, user models.Target, cursor string) (*crawl.Page[models.Note], error) {
	return c.userNotePage(ctx, UserPostedAPI, user, cursor)
}

// LikedNotes fetches one page of the notes a user liked
func (c *Client) LikedNotes(ctx context.Context, user models.Target, cursor string) (*crawl.Page[models.Note], error) {
	return c.userNotePage(ctx, LikedNotesAPI, user, cursor)
}

// CollectedNotes fetches one page of the notes a user collected
func (c *Client) CollectedNotes(ctx context.Context, user models.Target, cursor string) (*crawl.Page[models.Note], error) {
	return c.userNotePage(ctx, CollectedNotesAPI, user, cursor)
}

func (c *Client) userNotePage(ctx context.Context, path string, user models.Target, cursor string) (*crawl.Page[models.Note], error) {
	if err := requireID(path, "user id", user.ID); err != nil {
		return nil, err
	}
	data, err := c.get(ctx, path, userPageQuery(user, cursor))
	if err != nil {
		return nil, err
	}
	return decodePage[models.Note](path, data, userNotesShape)
}

// SearchQuery describes a note search
type SearchQuery struct {
	Keyword  string
	Sort     SortOrder
	NoteType NoteType
}

// searchPage turns a page-number cursor into the page to request; "" is page 1
func searchPage(op, cursor string) (int, error) {
	if cursor == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, xerrors.Input(op, "invalid page cursor "+strconv.Quote(cursor), err)
	}
	return page, nil
}

// nextPage fills in the cursor of a page-number stream
func nextPage[T any](page *crawl.Page[T], current int) *crawl.Page[T] {
	if page.Items != nil {
		page.Cursor = strconv.Itoa(current + 1)
		page.HasCursor = true
	}
	return page
}

// SearchNotes fetches one page of note search results. The cursor is the
// page number; a response without items ends the stream.
func (c *Client) SearchNotes(ctx context.Context, q SearchQuery, cursor string) (*crawl.Page[models.Note], error) {
	if err := requireID(SearchNotesAPI, "keyword", q.Keyword); err != nil {
		return nil, err
	}
	page, err := searchPage(SearchNotesAPI, cursor)
	if err != nil {
		return nil, err
	}
	sort := q.Sort
	if sort == "" {
		sort = SortGeneral
	}

	data, err := c.post(ctx, SearchNotesAPI, map[string]interface{}{
		"keyword":       q.Keyword,
		"page":          page,
		"page_size":     SearchNotesPageSize,
		"search_id":     newSearchID(),
		"sort":          string(sort),
		"note_type":     int(q.NoteType),
		"ext_flags":     []string{},
		"image_formats": imageFormatList,
	})
	if err != nil {
		return nil, err
	}
	p, err := decodePage[models.Note](SearchNotesAPI, data, searchShape)
	if err != nil {
		return nil, err
	}
	return nextPage(p, page), nil
}

// SearchUsers fetches one page of user search results, paged like SearchNotes
func (c *Client) SearchUsers(ctx context.Context, keyword, cursor string) (*crawl.Page[models.User], error) {
	if err := requireID(SearchUsersAPI, "keyword", keyword); err != nil {
		return nil, err
	}
	page, err := searchPage(SearchUsersAPI, cursor)
	if err != nil {
		return nil, err
	}

	data, err := c.post(ctx, SearchUsersAPI, map[string]interface{}{
		"search_user_request": map[string]interface{}{
			"keyword":    keyword,
			"search_id":  newSearchID(),
			"page":       page,
			"page_size":  SearchUsersPageSize,
			"biz_type":   "web_search_user",
			"request_id": uuid.NewString(),
		},
	})
	if err != nil {
		return nil, err
	}
	p, err := decodePage[models.User](SearchUsersAPI, data, usersShape)
	if err != nil {
		return nil, err
	}
	return nextPage(p, page), nil
}

// newSearchID returns a 21 character lowercase id like the web client's
func newSearchID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:21]
}

// HomefeedPages returns a fetcher over one homefeed channel. The feed
// tracks how far it has been read, so every walk needs its own fetcher.
func (c *Client) HomefeedPages(category string) crawl.PageFetcher[models.Note] {
	var (
		mu        sync.Mutex
		noteIndex int
		fetched   bool
	)
	return func(ctx context.Context, cursor string) (*crawl.Page[models.Note], error) {
		if err := requireID(HomefeedAPI, "category", category); err != nil {
			return nil, err
		}

		mu.Lock()
		refreshType := 1
		if fetched {
			refreshType = 3
		}
		index := noteIndex
		mu.Unlock()

		data, err := c.post(ctx, HomefeedAPI, map[string]interface{}{
			"cursor_score":         cursor,
			"num":                  HomefeedPageSize,
			"refresh_type":         refreshType,
			"note_index":           index,
			"unread_begin_note_id": "",
			"unread_end_note_id":   "",
			"unread_note_count":    0,
			"category":             category,
			"search_key":           "",
			"need_num":             10,
			"image_formats":        imageFormatList,
			"need_filter_image":    false,
		})
		if err != nil {
			return nil, err
		}
		page, err := decodePage[models.Note](HomefeedAPI, data, homefeedShape)
		if err != nil {
			return nil, err
		}

		mu.Lock()
		fetched = true
		noteIndex += HomefeedPageSize
		mu.Unlock()
		return page, nil
	}
}

// TopComments fetches one page of a note's top-level comments
func (c *Client) TopComments(ctx context.Context, note models.Target, cursor string) (*crawl.Page[*models.Comment], error) {
	if err := requireID(CommentPageAPI, "note id", note.ID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("note_id", note.ID)
	q.Set("cursor", cursor)
	q.Set("top_comment_id", "")
	q.Set("image_formats", imageFormats)
	q.Set("xsec_token", note.XsecToken)

	data, err := c.get(ctx, CommentPageAPI, q)
	if err != nil {
		return nil, err
	}
	return decodePage[*models.Comment](CommentPageAPI, data, commentsShape)
}

// Replies fetches one page of replies to a top-level comment
func (c *Client) Replies(ctx context.Context, note models.Target, commentID, cursor string) (*crawl.Page[*models.Comment], error) {
	if err := requireID(CommentSubPageAPI, "comment id", commentID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("note_id", note.ID)
	q.Set("root_comment_id", commentID)
	q.Set("num", strconv.Itoa(RepliesPageSize))
	q.Set("cursor", cursor)
	q.Set("image_formats", imageFormats)
	q.Set("top_comment_id", "")
	q.Set("xsec_token", note.XsecToken)

	data, err := c.get(ctx, CommentSubPageAPI, q)
	if err != nil {
		return nil, err
	}
	return decodePage[*models.Comment](CommentSubPageAPI, data, commentsShape)
}

// Mentions fetches one page of the mentions feed
func (c *Client) Mentions(ctx context.Context, cursor string) (*crawl.Page[models.MessageEvent], error) {
	return c.messagePage(ctx, MentionsAPI, cursor)
}

// LikesAndCollects fetches one page of the likes and collects feed
func (c *Client) LikesAndCollects(ctx context.Context, cursor string) (*crawl.Page[models.MessageEvent], error) {
	return c.messagePage(ctx, LikesAPI, cursor)
}

// Connections fetches one page of the new followers feed
func (c *Client) Connections(ctx context.Context, cursor string) (*crawl.Page[models.MessageEvent], error) {
	return c.messagePage(ctx, ConnectionsAPI, cursor)
}

func (c *Client) messagePage(ctx context.Context, path, cursor string) (*crawl.Page[models.MessageEvent], error) {
	data, err := c.get(ctx, path, messageQuery(cursor))
	if err != nil {
		return nil, err
	}
	return decodePage[models.MessageEvent](path, data, messagesShape)
}

// NoteDetail fetches the full note behind target
func (c *Client) NoteDetail(ctx context.Context, note models.Target) (*models.Note, error) {
	if err := requireID(NoteDetailAPI, "note id", note.ID); err != nil {
		return nil, err
	}
	source := note.XsecSource
	if source == "" {
		source = SourcePCSearch
	}

	data, err := c.post(ctx, NoteDetailAPI, map[string]interface{}{
		"source_note_id": note.ID,
		"image_formats":  imageFormatList,
		"extra":          map[string]string{"need_body_topic": "1"},
		"xsec_source":    source,
		"xsec_token":     note.XsecToken,
	})
	if err != nil {
		return nil, err
	}

	var feed struct {
		Items []models.Note `json:"items"`
	}
	if err := decodeObject(NoteDetailAPI, data, &feed); err != nil {
		return nil, err
	}
	if len(feed.Items) == 0 || feed.Items[0].NoteCard == nil {
		return nil, xerrors.Schema(NoteDetailAPI, "note %s missing from feed response", note.ID)
	}

	n := feed.Items[0]
	if n.ID == "" {
		n.ID = note.ID
	}
	if n.XsecToken == "" {
		n.XsecToken = note.XsecToken
	}
	return &n, nil
}

// UserInfo fetches another user's profile as returned by the API
func (c *Client) UserInfo(ctx context.Context, userID string) (json.RawMessage, error) {
	if err := requireID(UserInfoAPI, "user id", userID); err != nil {
		return nil, err
	}
	return c.get(ctx, UserInfoAPI, url.Values{"target_user_id": {userID}})
}

// SelfInfo fetches the profile of the logged in account
func (c *Client) SelfInfo(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, SelfInfoAPI, nil)
}

// Me fetches the short account summary, which also reports guest sessions
func (c *Client) Me(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, MeAPI, nil)
}

// HomefeedChannels lists the homefeed categories
func (c *Client) HomefeedChannels(ctx context.Context) ([]models.Channel, error) {
	data, err := c.get(ctx, HomefeedCategoryAPI, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Categories []models.Channel `json:"categories"`
	}
	if err := decodeObject(HomefeedCategoryAPI, data, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// SearchKeyword returns search suggestions for word
func (c *Client) SearchKeyword(ctx context.Context, word string) ([]string, error) {
	if err := requireID(SearchRecommendAPI, "keyword", word); err != nil {
		return nil, err
	}
	data, err := c.get(ctx, SearchRecommendAPI, url.Values{"keyword": {word}})
	if err != nil {
		return nil, err
	}
	var out struct {
		SugItems []struct {
			Text string `json:"text"`
		} `json:"sug_items"`
	}
	if err := decodeObject(SearchRecommendAPI, data, &out); err != nil {
		return nil, err
	}
	words := make([]string, 0, len(out.SugItems))
	for _, s := range out.SugItems {
		words = append(words, s.Text)
	}
	return words, nil
}

// UnreadCount fetches the unread message counters
func (c *Client) UnreadCount(ctx context.Context) (*models.UnreadCount, error) {
	data, err := c.get(ctx, UnreadCountAPI, nil)
	if err != nil {
		return nil, err
	}
	var out models.UnreadCount
	if err := decodeObject(UnreadCountAPI, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
