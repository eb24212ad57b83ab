package xhs

import (
	"net/url"
	"strconv"

	"xhscrawl/pkg/models"
)

const (
	// BaseURL is the API host
	BaseURL = "https://edith.xiaohongshu.com"
	// WebURL is the site host, used for note pages and as Origin/Referer
	WebURL = "https://www.xiaohongshu.com"

	HomefeedCategoryAPI = "/api/sns/web/v1/homefeed/category"
	HomefeedAPI         = "/api/sns/web/v1/homefeed"
	UserInfoAPI         = "/api/sns/web/v1/user/otherinfo"
	SelfInfoAPI         = "/api/sns/web/v1/user/selfinfo"
	MeAPI               = "/api/sns/web/v2/user/me"
	UserPostedAPI       = "/api/sns/web/v1/user_posted"
	LikedNotesAPI       = "/api/sns/web/v1/note/like/page"
	CollectedNotesAPI   = "/api/sns/web/v2/note/collect/page"
	NoteDetailAPI       = "/api/sns/web/v1/feed"
	SearchRecommendAPI  = "/api/sns/web/v1/search/recommend"
	SearchNotesAPI      = "/api/sns/web/v1/search/notes"
	SearchUsersAPI      = "/api/sns/web/v1/search/usersearch"
	CommentPageAPI      = "/api/sns/web/v2/comment/page"
	CommentSubPageAPI   = "/api/sns/web/v2/comment/sub/page"
	UnreadCountAPI      = "/api/sns/web/unread_count"
	MentionsAPI         = "/api/sns/web/v1/you/mentions"
	LikesAPI            = "/api/sns/web/v1/you/likes"
	ConnectionsAPI      = "/api/sns/web/v1/you/connections"

	// Page sizes the web client asks for
	UserNotesPageSize   = 30
	SearchNotesPageSize = 20
	SearchUsersPageSize = 15
	HomefeedPageSize    = 20
	RepliesPageSize     = 10
	MessagesPageSize    = 20

	imageFormats = "jpg,webp,avif"
)

// xsec_source values
const (
	SourcePCSearch = "pc_search"
	SourcePCUser   = "pc_user"
	SourcePCFeed   = "pc_feed"
)

var imageFormatList = []string{"jpg", "webp", "avif"}

// SortOrder orders note search results
type SortOrder string

const (
	SortGeneral    SortOrder = "general"
	SortNewest     SortOrder = "time_descending"
	SortPopularity SortOrder = "popularity_descending"
)

// NoteType filters note search results
type NoteType int

const (
	NoteTypeAll NoteType = iota
	NoteTypeVideo
	NoteTypeImage
)

func userPageQuery(t models.Target, cursor string) url.Values {
	q := url.Values{}
	q.Set("num", strconv.Itoa(UserNotesPageSize))
	q.Set("cursor", cursor)
	q.Set("user_id", t.ID)
	q.Set("image_formats", imageFormats)
	q.Set("xsec_token", t.XsecToken)
	q.Set("xsec_source", t.XsecSource)
	return q
}

func messageQuery(cursor string) url.Values {
	q := url.Values{}
	q.Set("num", strconv.Itoa(MessagesPageSize))
	q.Set("cursor", cursor)
	return q
}
