// Package audio recovers a playable audio stream URL for a video:
// aggregator mirrors first, then the external extraction service, then
// a captions-only degradation signal, and as a last resort the player
// configuration embedded in the watch page.
package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jeranaias/tanaghum/internal/fallback"
	"github.com/jeranaias/tanaghum/internal/mirrors"
	"github.com/jeranaias/tanaghum/internal/tube"
)

var ErrNoAudio = errors.New("no playable audio stream")

// CaptionProber answers whether a transcript exists for a video. The
// captions resolver implements it; audio uses it to tell the caller
// "no stream, but the captions are still useful".
type CaptionProber interface {
	HasCaptions(ctx context.Context, id string) bool
}

// Result is either a stream or a degraded captions-only signal.
type Result struct {
	Stream      *Stream
	HasCaptions bool
}

type Resolver struct {
	Tube      *tube.Client
	Mirrors   *mirrors.Registry
	Extractor *Extractor
	Prober    CaptionProber
	Timeout   time.Duration
}

// Resolve walks the audio cascade. A nil error with a nil Stream means
// the captions-only degradation path: no audio anywhere, but a
// transcript exists.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Result, error) {
	var cands []fallback.Candidate[Stream]

	for _, base := range r.Mirrors.Audio() {
		base := base
		cands = append(cands, fallback.Candidate[Stream]{
			Name:    "mirror " + base,
			Timeout: r.Timeout,
			Fn: func(ctx context.Context) (Stream, error) {
				return r.fromMirror(ctx, base, id)
			},
		})
	}

	cands = append(cands, fallback.Candidate[Stream]{
		Name:    "extractor-service",
		Timeout: r.Timeout,
		Fn: func(ctx context.Context) (Stream, error) {
			return r.Extractor.Extract(ctx, id)
		},
	})

	stream, err := fallback.Run(ctx, "audio", cands)
	if err == nil {
		return &Result{Stream: &stream}, nil
	}
	if !errors.Is(err, fallback.ErrExhausted) {
		return nil, err
	}

	// Degrade before scraping: a transcript is a useful answer on its
	// own, and the page scrape below rarely succeeds where the
	// structured sources all failed.
	if r.Prober != nil && r.Prober.HasCaptions(ctx, id) {
		return &Result{HasCaptions: true}, nil
	}

	stream, err = fallback.Run(ctx, "audio", []fallback.Candidate[Stream]{{
		Name:    "watch-page",
		Timeout: r.Timeout,
		Fn: func(ctx context.Context) (Stream, error) {
			return r.fromWatchPage(ctx, id)
		},
	}})
	if err != nil {
		return nil, err
	}

	return &Result{Stream: &stream}, nil
}

func (r *Resolver) fromMirror(ctx context.Context, base, id string) (Stream, error) {
	res, err := r.Tube.MirrorStreams(ctx, base, id)
	if err != nil {
		return Stream{}, err
	}

	duration := int(res.Get("duration").Int())

	var streams []Stream
	res.Get("audioStreams").ForEach(func(_, s gjson.Result) bool {
		url := s.Get("url").String()
		mime := s.Get("mimeType").String()
		if url == "" || mime == "" {
			// Malformed entry; skip rather than guess.
			return true
		}
		streams = append(streams, Stream{
			URL:             url,
			MimeType:        mime,
			Bitrate:         int(s.Get("bitrate").Int()),
			Quality:         s.Get("quality").String(),
			ContentLength:   s.Get("contentLength").String(),
			DurationSeconds: duration,
		})
		return true
	})

	chosen, ok := Select(streams)
	if !ok {
		return Stream{}, fmt.Errorf("mirror %s: %w", base, ErrNoAudio)
	}
	return chosen, nil
}

// fromWatchPage parses the embedded player configuration and keeps
// only adaptive formats that are audio and expose a direct URL.
// Cipher-protected entries carry no url field and are excluded here;
// signature deciphering is out of scope, so they are never attempted.
func (r *Resolver) fromWatchPage(ctx context.Context, id string) (Stream, error) {
	body, err := r.Tube.WatchPage(ctx, id)
	if err != nil {
		return Stream{}, err
	}

	player, ok := tube.ExtractPlayerJSON(body)
	if !ok {
		return Stream{}, fmt.Errorf("watch page: no player configuration: %w", ErrNoAudio)
	}

	var streams []Stream
	player.Get("streamingData.adaptiveFormats").ForEach(func(_, f gjson.Result) bool {
		if !f.Get("url").Exists() {
			return true // cipher-protected, excluded
		}
		streams = append(streams, Stream{
			URL:             f.Get("url").String(),
			MimeType:        f.Get("mimeType").String(),
			Bitrate:         int(f.Get("bitrate").Int()),
			Quality:         f.Get("audioQuality").String(),
			ContentLength:   f.Get("contentLength").String(),
			DurationSeconds: int(f.Get("approxDurationMs").Int() / 1000),
		})
		return true
	})

	chosen, ok := Select(streams)
	if !ok {
		return Stream{}, fmt.Errorf("watch page: %w", ErrNoAudio)
	}
	return chosen, nil
}
