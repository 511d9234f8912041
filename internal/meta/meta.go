// Package meta produces a best-effort descriptive record for a video.
// The stable oEmbed lookup is the primary source; a watch-page scan
// augments it with a duration and a captions marker. Augmentation may
// fail on its own without failing the lookup.
package meta

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/tanaghum/internal/tube"
)

type Metadata struct {
	VideoID           string
	Title             string
	Author            string
	AuthorURL         string
	Thumbnail         string
	ThumbnailWidth    int
	ThumbnailHeight   int
	DurationSeconds   int
	CaptionsAvailable bool
}

type Resolver struct {
	Tube    *tube.Client
	Timeout time.Duration
}

var lengthPattern = regexp.MustCompile(`"lengthSeconds":"(\d+)"`)

// Resolve merges the primary oEmbed result with the page-scan
// augmentation. The two fetches are independent and run concurrently;
// only a primary failure fails the operation, a broken augmentation
// just leaves the defaults (duration 0, captions unavailable).
func (r *Resolver) Resolve(ctx context.Context, id string) (*Metadata, error) {
	var (
		info *tube.OEmbed
		page []byte
	)

	var group errgroup.Group
	group.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, r.Timeout)
		defer cancel()

		i, err := r.Tube.OEmbedInfo(fetchCtx, id)
		if err != nil {
			return err
		}
		info = i
		return nil
	})
	group.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, r.Timeout)
		defer cancel()

		body, err := r.Tube.WatchPage(fetchCtx, id)
		if err != nil {
			log.Printf("[WARN]: metadata: augmentation fetch failed for %q: %v", id, err)
			return nil
		}
		page = body
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	m := &Metadata{
		VideoID:         id,
		Title:           info.Title,
		Author:          info.AuthorName,
		AuthorURL:       info.AuthorURL,
		Thumbnail:       info.ThumbnailURL,
		ThumbnailWidth:  info.ThumbnailWidth,
		ThumbnailHeight: info.ThumbnailHeight,
	}

	if page != nil {
		augment(m, string(page))
	}
	return m, nil
}

// augment scans the watch page text for the two signals worth having:
// whether caption tracks are mentioned anywhere, and the declared
// video length.
func augment(m *Metadata, page string) {
	m.CaptionsAvailable = strings.Contains(page, `"captionTracks"`) ||
		strings.Contains(page, `"playerCaptionsTracklistRenderer"`)

	if match := lengthPattern.FindStringSubmatch(page); match != nil {
		if seconds, err := strconv.Atoi(match[1]); err == nil {
			m.DurationSeconds = seconds
		}
	}
}
