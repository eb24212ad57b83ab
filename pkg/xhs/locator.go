package xhs

import (
	"net/url"
	"strings"

	xerrors "xhscrawl/pkg/errors"
	"xhscrawl/pkg/models"
)

// ParseTarget extracts the id and xsec parameters from a note or profile URL.
// The id is the last path segment. defaultSource fills in a missing
// xsec_source.
//
// Query values are split by hand: xsec tokens are base64 and a form decoder
// would turn their '+' into spaces.
func ParseTarget(rawURL, defaultSource string) (models.Target, error) {
	const op = "parse target"

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return models.Target{}, xerrors.Input(op, "url is empty", nil)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.Target{}, xerrors.Input(op, "invalid url", err)
	}

	path := strings.TrimRight(u.Path, "/")
	id := path[strings.LastIndex(path, "/")+1:]
	if id == "" {
		return models.Target{}, xerrors.Input(op, "url has no id segment: "+rawURL, nil)
	}

	t := models.Target{ID: id, XsecSource: defaultSource, URL: rawURL}
	for _, kv := range strings.Split(u.RawQuery, "&") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if v, err := url.PathUnescape(value); err == nil {
			value = v
		}
		switch key {
		case "xsec_token":
			t.XsecToken = value
		case "xsec_source":
			if value != "" {
				t.XsecSource = value
			}
		}
	}
	return t, nil
}

// NoteURL builds the web URL of a note
func NoteURL(t models.Target) string {
	u := WebURL + "/explore/" + t.ID
	if t.XsecToken == "" {
		return u
	}
	q := "xsec_token=" + url.QueryEscape(t.XsecToken)
	if t.XsecSource != "" {
		q += "&xsec_source=" + url.QueryEscape(t.XsecSource)
	}
	return u + "?" + q
}
