package xhs

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xerrors "xhscrawl/pkg/errors"
)

const (
	imageCDN    = "https://sns-img-qc.xhscdn.com/"
	spectrumCDN = "http://sns-webpic.xhscdn.com/"
)

// NoWatermarkImageURL rewrites a note image URL to its original, unwatermarked
// CDN location. Three URL shapes are recognized:
//
//	.../<date>/<hash>/110/0/<id>.jpg!nd_dft_wlteh_webp_3
//	.../<date>/<hash>/spectrum/<id>!nd_dft_wgth_webp_3
//	.../<date>/<hash>/<id>!nd_dft_wlteh_webp_3
func NoWatermarkImageURL(imageURL string) (string, error) {
	const op = "rewrite image url"

	parts := strings.Split(strings.TrimRight(imageURL, "/"), "/")
	if imageURL == "" || len(parts) < 2 {
		return "", xerrors.Input(op, "unrecognized image url: "+imageURL, nil)
	}
	stripSuffix := func(s string) string {
		s, _, _ = strings.Cut(s, "!")
		return s
	}

	switch {
	case strings.Contains(imageURL, ".jpg"):
		if len(parts) < 3 {
			return "", xerrors.Input(op, "unrecognized image url: "+imageURL, nil)
		}
		return imageCDN + stripSuffix(strings.Join(parts[len(parts)-3:], "/")), nil
	case strings.Contains(imageURL, "spectrum"):
		id := stripSuffix(strings.Join(parts[len(parts)-2:], "/"))
		return spectrumCDN + id + "?imageView2/2/w/format/jpg", nil
	default:
		return imageCDN + stripSuffix(parts[len(parts)-1]), nil
	}
}

// NoteVideoURL reads the unwatermarked video address from the og:video meta
// tag of a note's web page
func (c *Client) NoteVideoURL(ctx context.Context, noteID string) (string, error) {
	if err := requireID("note video", "note id", noteID); err != nil {
		return "", err
	}
	pageURL := c.webURL + "/explore/" + noteID
	op := "GET " + pageURL

	body, status, err := c.do(ctx, http.MethodGet, pageURL, nil, nil)
	if err != nil {
		return "", err
	}
	if err := c.checkResponseStatus(op, status, body); err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", xerrors.Transport(op, status, err)
	}
	video, ok := doc.Find(`meta[name="og:video"]`).First().Attr("content")
	if !ok || video == "" {
		return "", xerrors.Schema(op, "note %s page has no og:video tag", noteID)
	}
	return video, nil
}

// Download fetches a media file
func (c *Client) Download(ctx context.Context, mediaURL string) ([]byte, error) {
	op := "GET " + mediaURL
	c.logger.DebugWithFields("downloading media", map[string]interface{}{
		"url": mediaURL,
	})

	body, status, err := c.do(ctx, http.MethodGet, mediaURL, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := c.checkResponseStatus(op, status, nil); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("downloaded media", map[string]interface{}{
		"url":  mediaURL,
		"size": len(body),
	})
	return body, nil
}
