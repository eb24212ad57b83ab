package scraper_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xhscrawl/internal/xhstest"
	"xhscrawl/pkg/config"
	"xhscrawl/pkg/export"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/scraper"
	"xhscrawl/pkg/storage"
	"xhscrawl/pkg/xhs"
)

// TestCrawlAndExport runs a crawl that breaks on its third page through the
// exporters the CLI uses and checks what lands on disk
func TestCrawlAndExport(t *testing.T) {
	srv := xhstest.NewServer()
	defer srv.Close()
	srv.Script(xhs.UserPostedAPI,
		xhstest.OK(xhstest.NotesPage(0, 2, "c1", true)),
		xhstest.OK(xhstest.NotesPage(2, 2, "c2", true)),
		xhstest.Fail(300012, "ip blocked"),
	)

	cfg := config.DefaultConfig()
	cfg.XHS.Cookies = "a1=abc; web_session=xyz"
	cfg.RateLimit.DelayStrategy = "none"
	log := logger.NewTestLogger()

	client, err := xhs.NewClient(cfg.XHS, log, xhs.WithBaseURL(srv.URL()), xhs.WithWebURL(srv.URL()))
	require.NoError(t, err)
	s, err := scraper.NewWithAPI(client, cfg, log)
	require.NoError(t, err)
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	res := s.UserNotes(ctx, "https://www.xiaohongshu.com/user/profile/u1?xsec_token=tok")
	require.False(t, res.OK)
	require.Len(t, res.Data, 4)

	d := export.Notes(export.FileBase("user_notes", "u1"), res)
	files, err := export.WriteAll(ctx, d, store, []string{"json", "sqlite"}, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_notes_u1.json", export.DatabaseName}, files)

	data, err := os.ReadFile(store.Path("user_notes_u1.json"))
	require.NoError(t, err)
	var envelope struct {
		OK      bool              `json:"ok"`
		Message string            `json:"message"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.False(t, envelope.OK)
	assert.Contains(t, envelope.Message, "ip blocked")
	assert.Len(t, envelope.Data, 4)

	db, err := sql.Open("sqlite", store.Path(export.DatabaseName))
	require.NoError(t, err)
	defer db.Close()

	var ok bool
	var items int
	require.NoError(t, db.QueryRow(`SELECT ok, items FROM crawls WHERE name = ?`, "user_notes_u1").Scan(&ok, &items))
	assert.False(t, ok)
	assert.Equal(t, 4, items)
}
