package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jeranaias/tanaghum/internal/tube"
)

// Extractor is the client for the dedicated audio-extraction
// microservice. The service is a collaborator outside this core; it is
// treated as a black box that either has a stream or does not.
type Extractor struct {
	Tube    *tube.Client
	BaseURL string
	Enabled bool
}

var ErrExtractorDisabled = errors.New("extractor service not configured")

func (e *Extractor) Extract(ctx context.Context, id string) (Stream, error) {
	if !e.Enabled || e.BaseURL == "" {
		return Stream{}, ErrExtractorDisabled
	}

	body, err := e.Tube.Get(ctx, strings.TrimRight(e.BaseURL, "/")+"/extract?id="+id)
	if err != nil {
		return Stream{}, fmt.Errorf("extractor service: %w", err)
	}

	res := gjson.ParseBytes(body)
	if !res.Get("available").Bool() {
		return Stream{}, fmt.Errorf("extractor service: no stream for %s", id)
	}

	stream := Stream{
		URL:             res.Get("url").String(),
		MimeType:        res.Get("mimeType").String(),
		Bitrate:         int(res.Get("bitrate").Int()),
		Quality:         res.Get("quality").String(),
		ContentLength:   res.Get("contentLength").String(),
		DurationSeconds: int(res.Get("duration").Int()),
	}
	if stream.URL == "" {
		return Stream{}, fmt.Errorf("extractor service: empty url for %s", id)
	}

	stream.ExpiresAt = expiry(stream.URL)
	return stream, nil
}
