package scraper

import (
	"context"
	"fmt"

	"xhscrawl/internal/downloader"
	"xhscrawl/pkg/config"
	"xhscrawl/pkg/crawl"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/metadata"
	"xhscrawl/pkg/models"
	"xhscrawl/pkg/ratelimit"
	"xhscrawl/pkg/storage"
	"xhscrawl/pkg/xhs"
)

// Scraper runs crawls against the xiaohongshu web API
type Scraper struct {
	api    API
	pacer  ratelimit.Pacer
	config *config.Config
	logger logger.Logger
}

// New creates a Scraper with an API client built from cfg
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	client, err := xhs.NewClient(cfg.XHS, log, xhs.WithLimiter(limiter))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return NewWithAPI(client, cfg, log)
}

// NewWithAPI creates a Scraper over an existing API implementation
func NewWithAPI(api API, cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	delay, err := ratelimit.ParseDelay(
		cfg.RateLimit.DelayStrategy,
		cfg.RateLimit.PageDelay,
		cfg.RateLimit.MaxDelay,
		cfg.RateLimit.Multiplier,
	)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		api:    api,
		pacer:  ratelimit.NewPacer(delay),
		config: cfg,
		logger: log,
	}, nil
}

// SetPacer replaces the pacer used between reply pages
func (s *Scraper) SetPacer(p ratelimit.Pacer) {
	s.pacer = p
}

func inputFailure[T any](err error) crawl.Result[T] {
	return crawl.Result[T]{OK: false, Message: err.Error(), Err: err}
}

func (s *Scraper) finished(kind string, ok bool, msg string, n int) {
	fields := map[string]interface{}{
		"crawl":   kind,
		"items":   n,
		"message": msg,
	}
	if ok {
		s.logger.InfoWithFields("Crawl finished", fields)
	} else {
		s.logger.WarnWithFields("Crawl failed", fields)
	}
}

type userPageFunc func(ctx context.Context, user models.Target, cursor string) (*crawl.Page[models.Note], error)

// walkUser runs a strict walk over one of a user's note lists
func (s *Scraper) walkUser(ctx context.Context, kind, userURL, source string, fetch userPageFunc) crawl.Result[models.Note] {
	user, err := xhs.ParseTarget(userURL, source)
	if err != nil {
		s.logger.WithError(err).Error("Invalid user url")
		return inputFailure[models.Note](err)
	}

	log := s.logger.WithFields(map[string]interface{}{"crawl": kind, "user_id": user.ID})
	log.Info("Crawling user notes")

	res := crawl.Walk(ctx, func(ctx context.Context, cursor string) (*crawl.Page[models.Note], error) {
		return fetch(ctx, user, cursor)
	}, crawl.Options{Name: kind, Policy: crawl.Strict, Logger: log})

	s.finished(kind, res.OK, res.Message, len(res.Data))
	return res
}

// UserNotes collects every note a user posted
func (s *Scraper) UserNotes(ctx context.Context, userURL string) crawl.Result[models.Note] {
	return s.walkUser(ctx, "user_notes", userURL, xhs.SourcePCSearch, s.api.UserNotes)
}

// LikedNotes collects every note a user liked
func (s *Scraper) LikedNotes(ctx context.Context, userURL string) crawl.Result[models.Note] {
	return s.walkUser(ctx, "liked_notes", userURL, xhs.SourcePCUser, s.api.LikedNotes)
}

// CollectedNotes collects every note a user saved
func (s *Scraper) CollectedNotes(ctx context.Context, userURL string) crawl.Result[models.Note] {
	return s.walkUser(ctx, "collected_notes", userURL, xhs.SourcePCSearch, s.api.CollectedNotes)
}

// SearchNotes collects the first n note search results
func (s *Scraper) SearchNotes(ctx context.Context, q xhs.SearchQuery, n int) crawl.Result[models.Note] {
	if q.Sort == "" {
		q.Sort = xhs.SortOrder(s.config.Crawl.SearchSort)
	}
	log := s.logger.WithFields(map[string]interface{}{"crawl": "search_notes", "keyword": q.Keyword})
	log.InfoWithFields("Searching notes", map[string]interface{}{"count": n, "sort": q.Sort})

	res := crawl.WalkBounded(ctx, func(ctx context.Context, cursor string) (*crawl.Page[models.Note], error) {
		return s.api.SearchNotes(ctx, q, cursor)
	}, n, crawl.Options{Name: "search_notes", Logger: log})

	s.finished("search_notes", res.OK, res.Message, len(res.Data))
	return res
}

// SearchUsers collects the first n user search results
func (s *Scraper) SearchUsers(ctx context.Context, keyword string, n int) crawl.Result[models.User] {
	log := s.logger.WithFields(map[string]interface{}{"crawl": "search_users", "keyword": keyword})
	log.InfoWithFields("Searching users", map[string]interface{}{"count": n})

	res := crawl.WalkBounded(ctx, func(ctx context.Context, cursor string) (*crawl.Page[models.User], error) {
		return s.api.SearchUsers(ctx, keyword, cursor)
	}, n, crawl.Options{Name: "search_users", Logger: log})

	s.finished("search_users", res.OK, res.Message, len(res.Data))
	return res
}

// Homefeed collects the first n recommendations of a homefeed channel.
// The feed is read until it holds more than n notes, then truncated.
func (s *Scraper) Homefeed(ctx context.Context, category string, n int) crawl.Result[models.Note] {
	if category == "" {
		category = s.config.Crawl.HomefeedCategory
	}
	log := s.logger.WithFields(map[string]interface{}{"crawl": "homefeed", "category": category})
	log.InfoWithFields("Reading homefeed", map[string]interface{}{"count": n})

	res := crawl.WalkBounded(ctx, s.api.HomefeedPages(category), n, crawl.Options{
		Name:           "homefeed",
		ExclusiveBound: true,
		Logger:         log,
	})

	s.finished("homefeed", res.OK, res.Message, len(res.Data))
	return res
}

// NoteComments collects a note's comments with their replies
func (s *Scraper) NoteComments(ctx context.Context, noteURL string) crawl.Result[*models.Comment] {
	note, err := xhs.ParseTarget(noteURL, xhs.SourcePCSearch)
	if err != nil {
		s.logger.WithError(err).Error("Invalid note url")
		return inputFailure[*models.Comment](err)
	}

	res := crawl.NewCommentCrawler(s.api, s.pacer, s.logger.WithField("crawl", "comments")).Crawl(ctx, note)
	s.finished("comments", res.OK, res.Message, len(res.Data))
	return res
}

type messagePageFunc func(ctx context.Context, cursor string) (*crawl.Page[models.MessageEvent], error)

func (s *Scraper) walkMessages(ctx context.Context, kind string, fetch messagePageFunc) crawl.Result[models.MessageEvent] {
	log := s.logger.WithField("crawl", kind)
	res := crawl.Walk(ctx, crawl.PageFetcher[models.MessageEvent](fetch), crawl.Options{
		Name:   kind,
		Policy: crawl.Strict,
		Logger: log,
	})
	s.finished(kind, res.OK, res.Message, len(res.Data))
	return res
}

// Mentions collects the account's mentions feed
func (s *Scraper) Mentions(ctx context.Context) crawl.Result[models.MessageEvent] {
	return s.walkMessages(ctx, "mentions", s.api.Mentions)
}

// LikesAndCollects collects the account's likes and collects feed
func (s *Scraper) LikesAndCollects(ctx context.Context) crawl.Result[models.MessageEvent] {
	return s.walkMessages(ctx, "likes", s.api.LikesAndCollects)
}

// Connections collects the account's new followers feed
func (s *Scraper) Connections(ctx context.Context) crawl.Result[models.MessageEvent] {
	return s.walkMessages(ctx, "connections", s.api.Connections)
}

// NoteDetail fetches the note behind noteURL
func (s *Scraper) NoteDetail(ctx context.Context, noteURL string) (*models.Note, error) {
	note, err := xhs.ParseTarget(noteURL, xhs.SourcePCSearch)
	if err != nil {
		return nil, err
	}
	return s.api.NoteDetail(ctx, note)
}

// MediaReport summarizes a media download
type MediaReport struct {
	Saved   int
	Skipped int
	Failed  int
	Errors  []error
}

// SaveNoteMedia downloads a note's images, and its video for video notes,
// into store. Files are named <note id>_<index>.jpg and <note id>.mp4, next
// to a <note id>.json metadata file that is rewritten on every call.
func (s *Scraper) SaveNoteMedia(ctx context.Context, note *models.Note, store *storage.Manager) (MediaReport, error) {
	var report MediaReport
	if note == nil || note.NoteCard == nil {
		return report, fmt.Errorf("note has no detail to take media from")
	}
	id := note.Key()
	log := s.logger.WithField("note_id", id)

	var jobs []downloader.Job
	for i, img := range note.NoteCard.ImageList {
		src := img.Best()
		if src == "" {
			continue
		}
		if original, err := xhs.NoWatermarkImageURL(src); err == nil {
			src = original
		} else {
			log.WithError(err).Debug("Keeping watermarked image url")
		}
		jobs = append(jobs, downloader.Job{URL: src, NoteID: id, FileName: fmt.Sprintf("%s_%d.jpg", id, i)})
	}

	if note.Kind() == "video" {
		video, err := s.api.NoteVideoURL(ctx, id)
		if err != nil {
			log.WithError(err).Warn("Could not resolve note video")
			report.Failed++
			report.Errors = append(report.Errors, err)
		} else {
			jobs = append(jobs, downloader.Job{URL: video, NoteID: id, FileName: id + ".mp4"})
		}
	}

	pool := downloader.NewWorkerPool(ctx, s.config.Output.MediaWorkers, s.api, store, nil, s.logger)
	for _, r := range pool.DownloadAll(jobs) {
		switch {
		case r.Skipped:
			report.Skipped++
		case r.Success:
			report.Saved++
		default:
			report.Failed++
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", r.Job.FileName, r.Error))
		}
	}

	meta := metadata.FromNote(*note)
	r, err := meta.Reader()
	if err == nil {
		err = store.Save(r, meta.FileName())
	}
	if err != nil {
		return report, fmt.Errorf("failed to save note metadata: %w", err)
	}

	log.InfoWithFields("Note media saved", map[string]interface{}{
		"saved":   report.Saved,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	})
	return report, nil
}
