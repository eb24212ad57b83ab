package xhs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/models"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		source     string
		wantID     string
		wantToken  string
		wantSource string
	}{
		{
			name:       "profile url",
			url:        "https://www.xiaohongshu.com/user/profile/67a332a2000000000d008358?xsec_token=ABTf9yz4cLHhTycIlksF0jOi1yIZgfcaQ6IXNNGdKJ8xg=&xsec_source=pc_feed",
			source:     SourcePCSearch,
			wantID:     "67a332a2000000000d008358",
			wantToken:  "ABTf9yz4cLHhTycIlksF0jOi1yIZgfcaQ6IXNNGdKJ8xg=",
			wantSource: "pc_feed",
		},
		{
			name:       "note url without source",
			url:        "https://www.xiaohongshu.com/explore/67d7c713000000000900e391?xsec_token=AB1ACxbo5cevHxV_bWibTmK8R1DDz0NnAW1PbFZLABXtE=",
			source:     SourcePCUser,
			wantID:     "67d7c713000000000900e391",
			wantToken:  "AB1ACxbo5cevHxV_bWibTmK8R1DDz0NnAW1PbFZLABXtE=",
			wantSource: SourcePCUser,
		},
		{
			name:       "plus sign survives",
			url:        "https://www.xiaohongshu.com/explore/abc?xsec_token=A+B%2FC=",
			wantID:     "abc",
			wantToken:  "A+B/C=",
			wantSource: "",
		},
		{
			name:       "trailing slash and no query",
			url:        "https://www.xiaohongshu.com/user/profile/u9/",
			source:     SourcePCSearch,
			wantID:     "u9",
			wantSource: SourcePCSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.url, tt.source)

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, tt.wantToken, got.XsecToken)
			assert.Equal(t, tt.wantSource, got.XsecSource)
			assert.Equal(t, tt.url, got.URL)
		})
	}
}

func TestParseTargetErrors(t *testing.T) {
	for _, raw := range []string{"", "   ", "https://www.xiaohongshu.com/", "http://[::1"} {
		_, err := ParseTarget(raw, SourcePCSearch)
		assert.True(t, xerrors.IsFatal(err), "%q", raw)
	}
}

func TestNoteURL(t *testing.T) {
	got, err := ParseTarget(NoteURL(user), "")
	require.NoError(t, err)

	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.XsecToken, got.XsecToken)
	assert.Equal(t, user.XsecSource, got.XsecSource)
	assert.Equal(t, WebURL+"/explore/x", NoteURL(models.Target{ID: "x"}))
}
