package scraper

import (
	"context"
	"encoding/json"

	"xhscrawl/pkg/models"
	"xhscrawl/pkg/xhs"
)

// Single-request calls that do not walk a stream. They return the client's
// errors unchanged so callers can tell a dead session from a bad url.

// UserProfile fetches the profile behind userURL
func (s *Scraper) UserProfile(ctx context.Context, userURL string) (json.RawMessage, error) {
	user, err := xhs.ParseTarget(userURL, xhs.SourcePCUser)
	if err != nil {
		return nil, err
	}
	return s.api.UserInfo(ctx, user.ID)
}

// SelfInfo fetches the logged in account's profile
func (s *Scraper) SelfInfo(ctx context.Context) (json.RawMessage, error) {
	return s.api.SelfInfo(ctx)
}

// CheckSession asks the API who the session belongs to. A guest session is
// reported by the API, not as an error.
func (s *Scraper) CheckSession(ctx context.Context) (json.RawMessage, error) {
	info, err := s.api.Me(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Session check failed")
		return nil, err
	}
	return info, nil
}

// Channels lists the homefeed categories
func (s *Scraper) Channels(ctx context.Context) ([]models.Channel, error) {
	return s.api.HomefeedChannels(ctx)
}

// Suggest returns search suggestions for word
func (s *Scraper) Suggest(ctx context.Context, word string) ([]string, error) {
	return s.api.SearchKeyword(ctx, word)
}

// Unread fetches the unread message counters
func (s *Scraper) Unread(ctx context.Context) (*models.UnreadCount, error) {
	return s.api.UnreadCount(ctx)
}
