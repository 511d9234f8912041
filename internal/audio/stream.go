package audio

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Stream is one playable audio candidate. Entries without a direct URL
// (cipher-protected sources) never become Streams; they are filtered
// out at discovery, not deciphered.
type Stream struct {
	URL             string
	MimeType        string
	Bitrate         int
	Quality         string
	ContentLength   string
	DurationSeconds int
	ExpiresAt       *int64
}

// Select filters a candidate list down to playable audio and picks the
// best entry: audio/* mime with a direct URL, highest bitrate first.
// The sort is stable, so the same candidate set always yields the same
// stream.
func Select(streams []Stream) (Stream, bool) {
	usable := make([]Stream, 0, len(streams))
	for _, s := range streams {
		if s.URL == "" || !strings.HasPrefix(s.MimeType, "audio/") {
			continue
		}
		usable = append(usable, s)
	}
	if len(usable) == 0 {
		return Stream{}, false
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Bitrate > usable[j].Bitrate
	})

	chosen := usable[0]
	chosen.ExpiresAt = expiry(chosen.URL)
	return chosen, true
}

// expiry reads the expire query parameter carried by most stream URLs
// (epoch seconds) and converts it to epoch milliseconds. The caller
// uses it to avoid handing out a stale URL; nothing here refreshes it.
func expiry(rawURL string) *int64 {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	raw := u.Query().Get("expire")
	if raw == "" {
		return nil
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}

	ms := seconds * 1000
	return &ms
}
