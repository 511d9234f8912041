// Package search maps a free-text query to candidate videos by
// scraping the platform's results page. Unlike the other capabilities
// this one has a hard failure mode: when the embedded results
// structure is missing entirely, the page format has changed and the
// caller needs to know, so that surfaces as a 500 rather than an empty
// result.
package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jeranaias/tanaghum/internal/tube"
)

var (
	// ErrEmptyQuery is a validation failure; no upstream call is made.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrNoStructure means the results page no longer embeds the data
	// structure we scrape. That is a format change, not an empty
	// result set, and it maps to a hard error.
	ErrNoStructure = errors.New("results structure not found in page")

	initialDataAnchor = regexp.MustCompile(`ytInitialData\s*=\s*(\{.+?\});`)
)

type Video struct {
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	Channel         string `json:"channel"`
	ChannelURL      string `json:"channelUrl"`
	Duration        string `json:"duration"`
	DurationSeconds int    `json:"durationSeconds"`
	Views           string `json:"views"`
	PublishedTime   string `json:"publishedTime"`
	Thumbnail       string `json:"thumbnail"`
	Description     string `json:"description"`
	URL             string `json:"url"`
}

type Resolver struct {
	Tube           *tube.Client
	LocaleTerm     string
	MaxResults     int
	MaxQueryLength int
	Timeout        time.Duration
}

// Filters are optional post-parse duration bounds in seconds; zero
// means unbounded.
type Filters struct {
	MinDuration int
	MaxDuration int
}

// Resolve validates and normalizes the query, fetches the results
// page, and walks the embedded structure for video entries, stopping
// once MaxResults are accepted.
func (r *Resolver) Resolve(ctx context.Context, query string, filters Filters) ([]Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if runes := []rune(query); len(runes) > r.MaxQueryLength {
		query = string(runes[:r.MaxQueryLength])
	}

	if r.LocaleTerm != "" {
		query += " " + r.LocaleTerm
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	page, err := r.Tube.SearchPage(fetchCtx, query)
	if err != nil {
		return nil, fmt.Errorf("fetching results page: %w", err)
	}

	return r.extract(page, filters)
}

func (r *Resolver) extract(page []byte, filters Filters) ([]Video, error) {
	m := initialDataAnchor.FindSubmatch(page)
	if m == nil || !gjson.ValidBytes(m[1]) {
		return nil, ErrNoStructure
	}

	sections := gjson.ParseBytes(m[1]).
		Get("contents.twoColumnSearchResultsRenderer.primaryContents.sectionListRenderer.contents")
	if !sections.Exists() {
		return nil, ErrNoStructure
	}

	videos := make([]Video, 0, r.MaxResults)
	sections.ForEach(func(_, section gjson.Result) bool {
		section.Get("itemSectionRenderer.contents").ForEach(func(_, item gjson.Result) bool {
			renderer := item.Get("videoRenderer")
			if !renderer.Exists() {
				// Shelves, ads, channel results; not videos.
				return true
			}

			video, ok := videoFromRenderer(renderer)
			if !ok {
				return true
			}

			if filters.MinDuration > 0 && video.DurationSeconds < filters.MinDuration {
				return true
			}
			if filters.MaxDuration > 0 && video.DurationSeconds > filters.MaxDuration {
				return true
			}

			videos = append(videos, video)
			return len(videos) < r.MaxResults
		})
		return len(videos) < r.MaxResults
	})

	return videos, nil
}

func videoFromRenderer(m gjson.Result) (Video, bool) {
	id := m.Get("videoId").String()
	if id == "" {
		return Video{}, false
	}

	title := m.Get("title.runs.0.text").String()
	if title == "" {
		title = m.Get("title.simpleText").String()
	}

	channel := m.Get("ownerText.runs.0.text").String()
	if channel == "" {
		channel = m.Get("longBylineText.runs.0.text").String()
	}

	channelURL := ""
	if browse := m.Get("ownerText.runs.0.navigationEndpoint.browseEndpoint.browseId").String(); browse != "" {
		channelURL = "https://www.youtube.com/channel/" + browse
	}

	duration := m.Get("lengthText.simpleText").String()

	views := m.Get("viewCountText.simpleText").String()
	if views == "" {
		views = m.Get("shortViewCountText.simpleText").String()
	}

	var description strings.Builder
	m.Get("detailedMetadataSnippets.0.snippetText.runs").ForEach(func(_, run gjson.Result) bool {
		description.WriteString(run.Get("text").String())
		return true
	})

	thumb := ""
	if thumbs := m.Get("thumbnail.thumbnails").Array(); len(thumbs) > 0 {
		// Last entry is the highest resolution.
		thumb = thumbs[len(thumbs)-1].Get("url").String()
	}

	return Video{
		VideoID:         id,
		Title:           title,
		Channel:         channel,
		ChannelURL:      channelURL,
		Duration:        duration,
		DurationSeconds: ParseDuration(duration),
		Views:           views,
		PublishedTime:   m.Get("publishedTimeText.simpleText").String(),
		Thumbnail:       thumb,
		Description:     description.String(),
		URL:             "https://www.youtube.com/watch?v=" + id,
	}, true
}

// ParseDuration converts a colon-delimited display duration ("H:MM:SS"
// or "MM:SS") to total seconds with right-to-left positional weights.
// Anything without at least one colon is unparsable and yields 0.
func ParseDuration(display string) int {
	parts := strings.Split(strings.TrimSpace(display), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	weights := []int{1, 60, 3600}
	total := 0
	for i := 0; i < len(parts); i++ {
		part := strings.TrimSpace(parts[len(parts)-1-i])
		n := 0
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return 0
			}
			n = n*10 + int(ch-'0')
		}
		if part == "" {
			return 0
		}
		total += n * weights[i]
	}

	return total
}
