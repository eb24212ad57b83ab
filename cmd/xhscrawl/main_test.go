package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xhscrawl/pkg/ui"
)

func TestCommandFlagsOnlyChanged(t *testing.T) {
	cmd := noteCmd
	require.NoError(t, cmd.ParseFlags([]string{"--rpm", "30", "--format", "json,md", "--page-delay", "2s", "--media"}))

	set := commandFlags(cmd)

	assert.Equal(t, 30, set["rpm"])
	assert.Equal(t, []string{"json", "md"}, set["format"])
	assert.Equal(t, 2*time.Second, set["page-delay"])
	assert.Equal(t, true, set["media"])
	assert.NotContains(t, set, "cookies")
	assert.NotContains(t, set, "output")
}

func TestTargetID(t *testing.T) {
	assert.Equal(t, "5f1c", targetID("https://www.xiaohongshu.com/user/profile/5f1c?xsec_token=a"))
	assert.Equal(t, "n1", targetID("https://www.xiaohongshu.com/explore/n1"))
	assert.Equal(t, "invalid", targetID(""))
}

func TestConfigPathCommand(t *testing.T) {
	var buf bytes.Buffer
	old := ui.Out
	ui.Out = &buf
	defer func() { ui.Out = old }()

	rootCmd.SetArgs([]string{"config", "path"})
	require.NoError(t, rootCmd.Execute())

	out := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(out, "config.yaml"), out)
	assert.NotContains(t, out, "XIAOHONGSHU")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"notes"}, {"likes"}, {"collects"},
		{"search", "notes"}, {"search", "users"},
		{"homefeed"}, {"comments"}, {"note"},
		{"messages", "mentions"}, {"messages", "likes"}, {"messages", "connections"},
		{"auth", "login"}, {"auth", "list"}, {"config", "init"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
