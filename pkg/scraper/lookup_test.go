package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xhscrawl/internal/xhstest"
	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/models"
	"xhscrawl/pkg/xhs"
)

func TestUserProfileSendsParsedID(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(xhs.UserInfoAPI, xhstest.OK(xhstest.Page{"basic_info": map[string]interface{}{"nickname": "alice"}}))
	s, _ := newTestScraper(t, srv)

	info, err := s.UserProfile(context.Background(), userURL)

	require.NoError(t, err)
	assert.Contains(t, string(info), "alice")
	reqs := srv.Requests(xhs.UserInfoAPI)
	require.Len(t, reqs, 1)
	assert.Equal(t, "u1", reqs[0].Query.Get("target_user_id"))

	_, err = s.UserProfile(context.Background(), "")
	assert.True(t, xerrors.IsFatal(err))
}

func TestCheckSessionLogsFailure(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(xhs.MeAPI, xhstest.Fail(-100, "login expired"))
	s, log := newTestScraper(t, srv)

	_, err := s.CheckSession(context.Background())

	assert.Error(t, err)
	assert.True(t, log.HasMessage("Session check failed"))
}

func TestChannelsSuggestUnread(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(xhs.HomefeedCategoryAPI, xhstest.OK(xhstest.Page{
		"categories": []map[string]string{{"id": "homefeed.fashion_v3", "name": "fashion"}},
	}))
	srv.Script(xhs.SearchRecommendAPI, xhstest.OK(xhstest.Page{
		"sug_items": []map[string]string{{"text": "coffee"}, {"text": "coffee beans"}},
	}))
	srv.Script(xhs.UnreadCountAPI, xhstest.OK(xhstest.Page{"unread_count": 3, "mentions": 1}))
	s, _ := newTestScraper(t, srv)
	ctx := context.Background()

	channels, err := s.Channels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Channel{{ID: "homefeed.fashion_v3", Name: "fashion"}}, channels)

	words, err := s.Suggest(ctx, "coff")
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "coffee beans"}, words)

	unread, err := s.Unread(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, unread.Unread)
	assert.Equal(t, 1, unread.Mentions)
}
