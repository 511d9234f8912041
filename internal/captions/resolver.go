// Package captions recovers a spoken-word transcript for a video by
// cascading over every upstream known to carry caption data: aggregator
// mirrors, the internal player API, the watch page markup, and finally
// blind timedtext probes for likely language codes.
package captions

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jeranaias/tanaghum/internal/fallback"
	"github.com/jeranaias/tanaghum/internal/mirrors"
	"github.com/jeranaias/tanaghum/internal/tube"
)

var (
	ErrNoCaptions = errors.New("no caption tracks")

	// Language codes probed against the timedtext endpoint when no
	// track listing could be discovered anywhere: exact codes first,
	// then their auto-generated variants.
	timedTextProbes = []string{"ar", "en", "a.ar", "a.en"}
)

type Resolver struct {
	Tube    *tube.Client
	Mirrors *mirrors.Registry
	Timeout time.Duration
}

// Resolve produces at most one transcript for a video. The first
// candidate that yields usable segments wins and later candidates are
// never consulted. Exhaustion surfaces as fallback.ErrExhausted, which
// the API layer maps to a soft available:false response.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Transcript, error) {
	var cands []fallback.Candidate[*Transcript]

	for _, base := range r.Mirrors.Captions() {
		base := base
		cands = append(cands, fallback.Candidate[*Transcript]{
			Name:    "mirror " + base,
			Timeout: r.Timeout,
			Fn: func(ctx context.Context) (*Transcript, error) {
				return r.fromMirror(ctx, base, id)
			},
		})
	}

	cands = append(cands,
		fallback.Candidate[*Transcript]{
			Name:    "player-api",
			Timeout: r.Timeout,
			Fn: func(ctx context.Context) (*Transcript, error) {
				return r.fromPlayer(ctx, id)
			},
		},
		fallback.Candidate[*Transcript]{
			Name:    "watch-page",
			Timeout: r.Timeout,
			Fn: func(ctx context.Context) (*Transcript, error) {
				return r.fromWatchPage(ctx, id)
			},
		},
	)

	for _, lang := range timedTextProbes {
		lang := lang
		cands = append(cands, fallback.Candidate[*Transcript]{
			Name:    "timedtext " + lang,
			Timeout: r.Timeout,
			Fn: func(ctx context.Context) (*Transcript, error) {
				return r.fromTimedText(ctx, id, lang)
			},
		})
	}

	return fallback.Run(ctx, "captions", cands)
}

// HasCaptions reports whether any candidate can produce a transcript.
// Used by the audio resolver to signal captions-only degradation.
func (r *Resolver) HasCaptions(ctx context.Context, id string) bool {
	_, err := r.Resolve(ctx, id)
	return err == nil
}

func (r *Resolver) fromMirror(ctx context.Context, base, id string) (*Transcript, error) {
	streams, err := r.Tube.MirrorStreams(ctx, base, id)
	if err != nil {
		return nil, err
	}

	var tracks []Track
	streams.Get("subtitles").ForEach(func(_, sub gjson.Result) bool {
		url := sub.Get("url").String()
		if url == "" {
			return true
		}
		tracks = append(tracks, Track{
			LanguageCode:  sub.Get("code").String(),
			Name:          sub.Get("name").String(),
			AutoGenerated: sub.Get("autoGenerated").Bool(),
			URL:           url,
		})
		return true
	})

	return r.resolveTrack(ctx, tracks)
}

func (r *Resolver) fromPlayer(ctx context.Context, id string) (*Transcript, error) {
	player, err := r.Tube.PlayerResponse(ctx, id)
	if err != nil {
		return nil, err
	}

	tracks := tracksFromList(player.Get("captions.playerCaptionsTracklistRenderer.captionTracks"))
	return r.resolveTrack(ctx, tracks)
}

var captionTracksPattern = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

// fromWatchPage scrapes the embedded page script. Three independent
// extraction strategies are tried in sequence; the platform serves
// several distinct render paths and each anchor has been observed to
// survive a markup variant the others do not.
func (r *Resolver) fromWatchPage(ctx context.Context, id string) (*Transcript, error) {
	body, err := r.Tube.WatchPage(ctx, id)
	if err != nil {
		return nil, err
	}
	page := string(body)

	for _, extract := range []func(string) []Track{
		extractCaptionsObject,
		extractCaptionTracksArray,
		extractPlayerResponse,
	} {
		if tracks := extract(page); len(tracks) > 0 {
			return r.resolveTrack(ctx, tracks)
		}
	}

	return nil, ErrNoCaptions
}

// extractCaptionsObject splits on the "captions": key and cuts the
// object off at the videoDetails key that follows it.
func extractCaptionsObject(page string) []Track {
	split := strings.Split(page, `"captions":`)
	if len(split) <= 1 {
		return nil
	}

	raw := strings.ReplaceAll(strings.Split(split[1], `,"videoDetails`)[0], "\n", "")
	if !gjson.Valid(raw) {
		return nil
	}

	return tracksFromList(gjson.Parse(raw).Get("playerCaptionsTracklistRenderer.captionTracks"))
}

// extractCaptionTracksArray pulls the bare captionTracks array out of
// the script without assuming anything about its surroundings.
func extractCaptionTracksArray(page string) []Track {
	m := captionTracksPattern.FindStringSubmatch(page)
	if m == nil || !gjson.Valid(m[1]) {
		return nil
	}

	return tracksFromList(gjson.Parse(m[1]))
}

// extractPlayerResponse anchors on the ytInitialPlayerResponse
// assignment and walks down to the track list.
func extractPlayerResponse(page string) []Track {
	player, ok := tube.ExtractPlayerJSON([]byte(page))
	if !ok {
		return nil
	}

	return tracksFromList(player.Get("captions.playerCaptionsTracklistRenderer.captionTracks"))
}

func tracksFromList(list gjson.Result) []Track {
	var tracks []Track
	list.ForEach(func(_, t gjson.Result) bool {
		url := t.Get("baseUrl").String()
		if url == "" {
			return true
		}

		name := t.Get("name.simpleText").String()
		if name == "" {
			name = t.Get("name.runs.0.text").String()
		}

		tracks = append(tracks, Track{
			LanguageCode:  t.Get("languageCode").String(),
			Name:          name,
			AutoGenerated: t.Get("kind").String() == "asr",
			URL:           url,
		})
		return true
	})
	return tracks
}

func (r *Resolver) fromTimedText(ctx context.Context, id, lang string) (*Transcript, error) {
	payload, err := r.Tube.TimedText(ctx, id, lang)
	if err != nil {
		return nil, err
	}

	segs := ParseSegments(payload)
	if len(segs) == 0 {
		return nil, fmt.Errorf("timedtext %q: %w", lang, ErrNoCaptions)
	}

	track := Track{
		LanguageCode:  strings.TrimPrefix(lang, "a."),
		AutoGenerated: strings.HasPrefix(lang, "a."),
	}
	transcript := BuildTranscript(track, segs, []Track{track})
	if transcript == nil {
		return nil, ErrNoCaptions
	}
	return transcript, nil
}

// resolveTrack picks the preferred track from a discovered list,
// fetches its payload and runs it through the parser chain.
func (r *Resolver) resolveTrack(ctx context.Context, tracks []Track) (*Transcript, error) {
	track, ok := SelectTrack(tracks)
	if !ok {
		return nil, ErrNoCaptions
	}

	payload, err := r.Tube.Get(ctx, track.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching track %q: %w", track.LanguageCode, err)
	}

	segs := ParseSegments(payload)
	if len(segs) == 0 {
		return nil, fmt.Errorf("track %q: %w", track.LanguageCode, ErrNoCaptions)
	}

	transcript := BuildTranscript(track, segs, tracks)
	if transcript == nil {
		return nil, ErrNoCaptions
	}
	return transcript, nil
}
