package captions

import (
	"sort"
	"strings"
)

// Track is one discovered caption track. Tracks are found per request
// and never persisted.
type Track struct {
	LanguageCode  string
	Name          string
	AutoGenerated bool
	URL           string
}

// TrackInfo is the language inventory surfaced on responses.
type TrackInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Transcript is the normalized result of one caption resolution.
type Transcript struct {
	Language           string
	LanguageName       string
	AutoGenerated      bool
	TrackCount         int
	AvailableLanguages []TrackInfo
	Segments           []Segment
	FullText           string
	WordCount          int
}

// SelectTrack applies the fixed preference ladder: exact "ar" beats an
// "ar-" regional variant, which beats any auto-generated track, which
// beats whatever was discovered first. Discovery order never reorders
// the ladder.
func SelectTrack(tracks []Track) (Track, bool) {
	for _, t := range tracks {
		if t.LanguageCode == "ar" {
			return t, true
		}
	}

	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "ar-") {
			return t, true
		}
	}

	for _, t := range tracks {
		if t.AutoGenerated {
			return t, true
		}
	}

	if len(tracks) > 0 {
		return tracks[0], true
	}

	return Track{}, false
}

// BuildTranscript assembles the normalized transcript: segments sorted
// by start offset, empty text dropped, full text joined by single
// spaces. Returns nil when nothing usable remains.
func BuildTranscript(track Track, segs []Segment, discovered []Track) *Transcript {
	kept := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if strings.TrimSpace(s.Text) != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start < kept[j].Start
	})

	texts := make([]string, len(kept))
	for i, s := range kept {
		texts[i] = s.Text
	}
	fullText := strings.Join(texts, " ")

	languages := make([]TrackInfo, 0, len(discovered))
	for _, t := range discovered {
		languages = append(languages, TrackInfo{Code: t.LanguageCode, Name: t.Name})
	}

	name := track.Name
	if name == "" {
		name = track.LanguageCode
	}

	return &Transcript{
		Language:           track.LanguageCode,
		LanguageName:       name,
		AutoGenerated:      track.AutoGenerated,
		TrackCount:         len(discovered),
		AvailableLanguages: languages,
		Segments:           kept,
		FullText:           fullText,
		WordCount:          len(strings.Fields(fullText)),
	}
}
