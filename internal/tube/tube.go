// Package tube talks to the video platform's unofficial surfaces: the
// watch page, the internal player API, the timedtext endpoint, the
// public oEmbed lookup, the results page, and third-party aggregator
// mirrors. None of these are sanctioned APIs; callers must treat every
// operation as best-effort.
package tube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultBase is the platform origin. Tests point Client.Base at a
// fake server instead.
const DefaultBase = "https://www.youtube.com"

const (
	watchPath     = "%s/watch?v=%s"
	playerPath    = "%s/youtubei/v1/player?key=%s"
	timedTextPath = "%s/api/timedtext?v=%s&lang=%s&fmt=json3"
	oEmbedPath    = "%s/oembed?url=%s&format=json"
	resultsPath   = "%s/results?search_query=%s&sp=EgIQAQ%%3D%%3D"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidID reports whether id is a syntactically valid video identifier:
// exactly 11 characters of [A-Za-z0-9_-].
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

type Client struct {
	HTTP         *http.Client
	Base         string // empty means DefaultBase
	InnertubeKey string
	UserAgent    string
	MobileAgent  string
}

func (c *Client) base() string {
	if c.Base != "" {
		return c.Base
	}
	return DefaultBase
}

// Get fetches a URL with the browser user agent and returns the body.
// Non-200 responses become errors carrying a truncated body excerpt.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Language", "ar,en;q=0.8")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"status code %d: %q",
			res.StatusCode,
			excerpt(body),
		)
	}

	return body, nil
}

// WatchPage fetches the public watch page for a video.
func (c *Client) WatchPage(ctx context.Context, id string) ([]byte, error) {
	body, err := c.Get(ctx, fmt.Sprintf(watchPath, c.base(), id))
	if err != nil {
		return nil, fmt.Errorf("requesting watch page: %w", err)
	}
	return body, nil
}

// PlayerResponse calls the internal structured player API with an
// Android client context, which returns direct stream URLs for most
// videos, and parses the response with gjson so shape drift in fields
// we don't read cannot break us.
func (c *Client) PlayerResponse(ctx context.Context, id string) (gjson.Result, error) {
	payload, err := json.Marshal(map[string]any{
		"videoId": id,
		"context": map[string]any{
			"client": map[string]any{
				"hl":            "ar",
				"gl":            "US",
				"clientName":    "ANDROID",
				"clientVersion": "19.09.37",
			},
		},
	})
	if err != nil {
		return gjson.Result{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf(playerPath, c.base(), c.InnertubeKey),
		bytes.NewReader(payload),
	)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.MobileAgent)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading player response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("player request status %d: %q", res.StatusCode, excerpt(body))
	}

	return gjson.ParseBytes(body), nil
}

// TimedText fetches the time-coded caption endpoint for one language
// code guess. Codes prefixed "a." request the auto-generated track for
// the bare code.
func (c *Client) TimedText(ctx context.Context, id, lang string) ([]byte, error) {
	endpoint := fmt.Sprintf(timedTextPath, c.base(), id, strings.TrimPrefix(lang, "a."))
	if strings.HasPrefix(lang, "a.") {
		endpoint += "&kind=asr"
	}

	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("timedtext %q: %w", lang, err)
	}
	return body, nil
}

type OEmbed struct {
	Title           string `json:"title"`
	AuthorName      string `json:"author_name"`
	AuthorURL       string `json:"author_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ThumbnailWidth  int    `json:"thumbnail_width"`
	ThumbnailHeight int    `json:"thumbnail_height"`
}

// OEmbedInfo is the stable, low-detail metadata lookup. It is the only
// upstream here that has not changed shape in years.
func (c *Client) OEmbedInfo(ctx context.Context, id string) (*OEmbed, error) {
	watch := url.QueryEscape(fmt.Sprintf(watchPath, DefaultBase, id))
	body, err := c.Get(ctx, fmt.Sprintf(oEmbedPath, c.base(), watch))
	if err != nil {
		return nil, fmt.Errorf("oembed lookup: %w", err)
	}

	var info OEmbed
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("unmarshalling oembed response: %w", err)
	}

	return &info, nil
}

// SearchPage fetches the results page restricted to the "videos"
// result type. The query must already be validated and truncated.
func (c *Client) SearchPage(ctx context.Context, query string) ([]byte, error) {
	body, err := c.Get(ctx, fmt.Sprintf(resultsPath, c.base(), url.QueryEscape(query)))
	if err != nil {
		return nil, fmt.Errorf("requesting results page: %w", err)
	}
	return body, nil
}

// MirrorStreams fetches an aggregator mirror's per-video streams
// response, which carries both the subtitle listing and the audio
// stream listing.
func (c *Client) MirrorStreams(ctx context.Context, base, id string) (gjson.Result, error) {
	body, err := c.Get(ctx, strings.TrimRight(base, "/")+"/streams/"+id)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("mirror %s: %w", base, err)
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Get("error").Exists() {
		return gjson.Result{}, fmt.Errorf("mirror %s: %s", base, parsed.Get("error").String())
	}

	return parsed, nil
}

var playerJSONAnchor = regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*(\{.+?\});`)

// ExtractPlayerJSON pulls the embedded player configuration out of a
// watch page body. The second return is false when the anchor is
// absent or the captured script is not valid JSON.
func ExtractPlayerJSON(page []byte) (gjson.Result, bool) {
	m := playerJSONAnchor.FindSubmatch(page)
	if m == nil || !gjson.ValidBytes(m[1]) {
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(m[1]), true
}

func excerpt(body []byte) string {
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}
