package meta

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/tanaghum/internal/tube"
)

const testID = "dQw4w9WgXcQ"

const oEmbedFixture = `{
	"title": "درس في النحو",
	"author_name": "قناة تعليمية",
	"author_url": "https://www.youtube.com/@channel",
	"thumbnail_url": "https://i/thumb.jpg",
	"thumbnail_width": 480,
	"thumbnail_height": 360
}`

func newResolver(srv *httptest.Server) *Resolver {
	return &Resolver{
		Tube: &tube.Client{
			HTTP:      srv.Client(),
			Base:      srv.URL,
			UserAgent: "test",
		},
		Timeout: time.Second,
	}
}

func TestResolveMergesAugmentation(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, oEmbedFixture)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>... "captionTracks":[...] ... "lengthSeconds":"212" ...</html>`)
	})

	m, err := newResolver(srv).Resolve(context.Background(), testID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Title != "درس في النحو" || m.Author != "قناة تعليمية" {
		t.Errorf("primary fields = %q / %q", m.Title, m.Author)
	}
	if m.ThumbnailWidth != 480 || m.ThumbnailHeight != 360 {
		t.Errorf("thumbnail dims = %dx%d", m.ThumbnailWidth, m.ThumbnailHeight)
	}
	if m.DurationSeconds != 212 {
		t.Errorf("duration = %d, want 212", m.DurationSeconds)
	}
	if !m.CaptionsAvailable {
		t.Error("captions marker not detected")
	}
}

func TestResolveSurvivesBrokenAugmentation(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, oEmbedFixture)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "page gone", http.StatusInternalServerError)
	})

	m, err := newResolver(srv).Resolve(context.Background(), testID)
	if err != nil {
		t.Fatalf("augmentation failure leaked: %v", err)
	}

	if m.Title != "درس في النحو" {
		t.Errorf("title = %q", m.Title)
	}
	if m.DurationSeconds != 0 || m.CaptionsAvailable {
		t.Errorf("augmented fields not defaulted: duration=%d captions=%v",
			m.DurationSeconds, m.CaptionsAvailable)
	}
}

func TestResolvePrimaryFailureIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>"lengthSeconds":"212"</html>`)
	})

	if _, err := newResolver(srv).Resolve(context.Background(), testID); err == nil {
		t.Fatal("expected an error when the primary lookup fails")
	}
}

func TestAugmentIgnoresMalformedLength(t *testing.T) {
	m := &Metadata{}
	augment(m, `"lengthSeconds":"notanumber" "playerCaptionsTracklistRenderer":{}`)
	if m.DurationSeconds != 0 {
		t.Errorf("duration = %d, want 0", m.DurationSeconds)
	}
	if !m.CaptionsAvailable {
		t.Error("captions marker not detected")
	}
}
