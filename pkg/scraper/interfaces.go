package scraper

import (
	"context"
	"encoding/json"

	"xhscrawl/pkg/crawl"
	"xhscrawl/pkg/models"
	"xhscrawl/pkg/xhs"
)

// API is the part of the xiaohongshu client the scraper drives
type API interface {
	crawl.CommentSource

	UserNotes(ctx context.Context, user models.Target, cursor string) (*crawl.Page[models.Note], error)
	LikedNotes(ctx context.Context, user models.Target, cursor string) (*crawl.Page[models.Note], error)
	CollectedNotes(ctx context.Context, user models.Target, cursor string) (*crawl.Page[models.Note], error)
	SearchNotes(ctx context.Context, q xhs.SearchQuery, cursor string) (*crawl.Page[models.Note], error)
	SearchUsers(ctx context.Context, keyword, cursor string) (*crawl.Page[models.User], error)
	HomefeedPages(category string) crawl.PageFetcher[models.Note]
	Mentions(ctx context.Context, cursor string) (*crawl.Page[models.MessageEvent], error)
	LikesAndCollects(ctx context.Context, cursor string) (*crawl.Page[models.MessageEvent], error)
	Connections(ctx context.Context, cursor string) (*crawl.Page[models.MessageEvent], error)

	NoteDetail(ctx context.Context, note models.Target) (*models.Note, error)
	NoteVideoURL(ctx context.Context, noteID string) (string, error)
	Download(ctx context.Context, mediaURL string) ([]byte, error)

	UserInfo(ctx context.Context, userID string) (json.RawMessage, error)
	SelfInfo(ctx context.Context) (json.RawMessage, error)
	Me(ctx context.Context) (json.RawMessage, error)
	HomefeedChannels(ctx context.Context) ([]models.Channel, error)
	SearchKeyword(ctx context.Context, word string) ([]string, error)
	UnreadCount(ctx context.Context) (*models.UnreadCount, error)
}

var _ API = (*xhs.Client)(nil)
