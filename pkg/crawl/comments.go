package crawl

import (
	"context"
	"fmt"
	"strings"

	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/models"
	"xhscrawl/pkg/ratelimit"
)

// CommentSource fetches the two comment streams of a note
type CommentSource interface {
	TopComments(ctx context.Context, target models.Target, cursor string) (*Page[*models.Comment], error)
	Replies(ctx context.Context, target models.Target, commentID, cursor string) (*Page[*models.Comment], error)
}

// CommentCrawler builds the full comment tree of a note. Page failures at
// either level are logged and contained; only an unusable target fails it.
type CommentCrawler struct {
	source        CommentSource
	pacer         ratelimit.Pacer
	logger        logger.Logger
	progressEvery int
}

// NewCommentCrawler creates a crawler that pauses with pacer between reply pages
func NewCommentCrawler(source CommentSource, pacer ratelimit.Pacer, log logger.Logger) *CommentCrawler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CommentCrawler{
		source:        source,
		pacer:         pacer,
		logger:        log,
		progressEvery: 10,
	}
}

// Crawl returns the top-level comments of target with their replies attached
func (c *CommentCrawler) Crawl(ctx context.Context, target models.Target) Result[*models.Comment] {
	if strings.TrimSpace(target.ID) == "" {
		err := xerrors.Input("crawl comments", "note id is empty", nil)
		c.logger.WithError(err).Error("Cannot crawl comments")
		return Result[*models.Comment]{OK: false, Message: err.Error(), Err: err}
	}

	log := c.logger.WithField("note_id", target.ID)
	log.Info("Crawling top-level comments")

	top := Walk(ctx, func(ctx context.Context, cursor string) (*Page[*models.Comment], error) {
		return c.source.TopComments(ctx, target, cursor)
	}, Options{Name: "comments", Policy: Lenient, Logger: log})
	if !top.OK {
		return top
	}
	if len(top.Data) == 0 {
		log.Info("Note has no comments")
		return Result[*models.Comment]{OK: true, Message: "collected 0 comments", Data: top.Data, Err: top.Err}
	}

	log.InfoWithFields("Crawling replies", map[string]interface{}{"top_level": len(top.Data)})

	replies, incomplete := 0, 0
	for i, comment := range top.Data {
		if i > 0 && i%c.progressEvery == 0 {
			log.InfoWithFields("Reply crawl progress", map[string]interface{}{
				"done":  i,
				"total": len(top.Data),
			})
		}

		if comment == nil || comment.ID == "" {
			log.WarnWithFields("Skipping malformed comment", map[string]interface{}{"index": i})
			continue
		}
		if comment.SubComments == nil {
			comment.SubComments = []*models.Comment{}
		}
		if !comment.SubCommentHasMore {
			continue
		}

		n := c.crawlReplies(ctx, target, comment, log)
		replies += n
		if comment.ReplyState == models.RepliesIncomplete {
			incomplete++
		}
	}

	msg := fmt.Sprintf("collected %d comments and %d replies", len(top.Data), replies)
	if top.Err != nil || incomplete > 0 {
		msg = fmt.Sprintf("%s (%s: %d reply streams incomplete)", msg, PartialMessage, incomplete)
	}
	log.InfoWithFields("Comment crawl finished", map[string]interface{}{
		"top_level":  len(top.Data),
		"replies":    replies,
		"incomplete": incomplete,
	})

	return Result[*models.Comment]{OK: true, Message: msg, Data: top.Data, Err: top.Err}
}

// crawlReplies walks one comment's reply stream and attaches what it got
func (c *CommentCrawler) crawlReplies(ctx context.Context, target models.Target, comment *models.Comment, log logger.Logger) int {
	res := Walk(ctx, func(ctx context.Context, cursor string) (*Page[*models.Comment], error) {
		return c.source.Replies(ctx, target, comment.ID, cursor)
	}, Options{
		Name:   "replies",
		Policy: Lenient,
		Cursor: comment.SubCommentCursor,
		Pacer:  c.pacer,
		Logger: log.WithField("comment_id", comment.ID),
	})

	comment.SubComments = append(comment.SubComments, res.Data...)
	// The stream is never revisited, so has_more is cleared either way and
	// ReplyState tells a finished stream from an abandoned one.
	comment.SubCommentHasMore = false
	if res.Err != nil {
		comment.ReplyState = models.RepliesIncomplete
	} else {
		comment.ReplyState = models.RepliesComplete
	}
	return len(res.Data)
}
