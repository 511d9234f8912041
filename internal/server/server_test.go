package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/tanaghum/internal/audio"
	"github.com/jeranaias/tanaghum/internal/captions"
	"github.com/jeranaias/tanaghum/internal/meta"
	"github.com/jeranaias/tanaghum/internal/mirrors"
	"github.com/jeranaias/tanaghum/internal/search"
	"github.com/jeranaias/tanaghum/internal/tube"
)

const testID = "dQw4w9WgXcQ"

func newServer(srv *httptest.Server) *Server {
	client := &tube.Client{
		HTTP:      srv.Client(),
		Base:      srv.URL,
		UserAgent: "test",
	}
	reg := mirrors.New([]string{srv.URL + "/m1"})
	captionsResolver := &captions.Resolver{Tube: client, Mirrors: reg, Timeout: time.Second}

	return &Server{
		Meta: &meta.Resolver{Tube: client, Timeout: time.Second},
		Captions: captionsResolver,
		Audio: &audio.Resolver{
			Tube:      client,
			Mirrors:   reg,
			Extractor: &audio.Extractor{Tube: client},
			Prober:    captionsResolver,
			Timeout:   time.Second,
		},
		Search: &search.Resolver{
			Tube:           client,
			MaxResults:     12,
			MaxQueryLength: 200,
			Timeout:        time.Second,
		},
	}
}

func body(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(res.Body).Decode(&m); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return m
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	app := newServer(srv).App()
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if got := body(t, res)["status"]; got != "ok" {
		t.Errorf("status field = %v", got)
	}
}

func TestInvalidVideoIDIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	app := newServer(srv).App()
	for _, route := range []string{"/api/metadata/", "/api/captions/", "/api/audio/"} {
		res, err := app.Test(httptest.NewRequest(http.MethodGet, route+"notavalidid!", nil))
		if err != nil {
			t.Fatalf("%s: request failed: %v", route, err)
		}
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", route, res.StatusCode)
		}
	}
}

func TestCaptionsUnavailableIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	app := newServer(srv).App()
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/captions/"+testID, nil), 10000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want soft 200", res.StatusCode)
	}

	got := body(t, res)
	if got["available"] != false {
		t.Errorf("available = %v, want false", got["available"])
	}
	if got["videoId"] != testID {
		t.Errorf("videoId = %v", got["videoId"])
	}
}

func TestAudioUnavailableIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	app := newServer(srv).App()
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/audio/"+testID, nil), 10000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want soft 200", res.StatusCode)
	}
	if got := body(t, res); got["available"] != false {
		t.Errorf("available = %v, want false", got["available"])
	}
}

func TestAudioCaptionsOnlySuggestion(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Mirror answers with subtitles but no audio streams, so the
	// captions prober succeeds while the audio cascade exhausts.
	mux.HandleFunc("/m1/streams/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"subtitles":[{"url":"%s/subs","code":"ar","name":"Arabic"}],"audioStreams":[]}`, srv.URL)
	})
	mux.HandleFunc("/subs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"events":[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"نص"}]}]}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	app := newServer(srv).App()
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/audio/"+testID, nil), 10000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want soft 200", res.StatusCode)
	}

	got := body(t, res)
	if got["available"] != false || got["hasCaptions"] != true {
		t.Errorf("got available=%v hasCaptions=%v", got["available"], got["hasCaptions"])
	}
	if got["suggestion"] == nil {
		t.Error("captions-only response carries no suggestion")
	}
}

func TestMetadataUnavailableIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	app := newServer(srv).App()
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/metadata/"+testID, nil), 10000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want soft 200", res.StatusCode)
	}
	if got := body(t, res); got["available"] != false {
		t.Errorf("available = %v, want false", got["available"])
	}
}

func TestSearchMissingQueryIsHard(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	app := newServer(srv).App()
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/search", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestSearchBrokenStructureIsHard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>a page shaped differently now</body></html>`)
	}))
	defer srv.Close()

	app := newServer(srv).App()
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/search?q=lesson", nil), 10000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", res.StatusCode)
	}
}

func TestSearchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script>var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[{"videoRenderer":{"videoId":"aaaaaaaaaaa","title":{"runs":[{"text":"First"}]},"lengthText":{"simpleText":"2:00"}}}]}}]}}}}};</script>`)
	}))
	defer srv.Close()

	app := newServer(srv).App()
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/search?q=lesson", nil), 10000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}

	got := body(t, res)
	if got["resultCount"] != float64(1) {
		t.Errorf("resultCount = %v, want 1", got["resultCount"])
	}
	if got["query"] != "lesson" {
		t.Errorf("query = %v", got["query"])
	}
}
