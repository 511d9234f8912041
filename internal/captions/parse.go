package captions

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Segment is one time-coded piece of spoken text.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// The payload behind a caption URL arrives in one of several shapes
// depending on which upstream produced it. Each parser converts one
// shape into segments; ParseSegments tries them in order and the first
// one yielding anything wins.
var parsers = []func([]byte) []Segment{
	parseJSON3,
	parseTimedMarkup,
	parseRawLines,
}

// ParseSegments runs the parser chain over a raw caption payload.
// Returns nil when no parser could produce a single non-empty segment.
func ParseSegments(payload []byte) []Segment {
	for _, parse := range parsers {
		if segs := parse(payload); len(segs) > 0 {
			return segs
		}
	}
	return nil
}

// parseJSON3 handles the structured event-list format: a top-level
// "events" array where each event has a start offset in milliseconds
// and a list of text fragments.
func parseJSON3(payload []byte) []Segment {
	if !gjson.ValidBytes(payload) {
		return nil
	}

	events := gjson.ParseBytes(payload).Get("events")
	if !events.Exists() {
		return nil
	}

	var segs []Segment
	events.ForEach(func(_, ev gjson.Result) bool {
		var text strings.Builder
		ev.Get("segs").ForEach(func(_, frag gjson.Result) bool {
			text.WriteString(frag.Get("utf8").String())
			return true
		})

		cleaned := strings.TrimSpace(strings.ReplaceAll(text.String(), "\n", " "))
		if cleaned == "" {
			return true
		}

		segs = append(segs, Segment{
			Start:    ev.Get("tStartMs").Float() / 1000,
			Duration: ev.Get("dDurationMs").Float() / 1000,
			Text:     cleaned,
		})
		return true
	})

	return segs
}

var (
	pElement = regexp.MustCompile(`(?s)<p\b([^>]*)>(.*?)</p>`)
	tAttr    = regexp.MustCompile(`\bt="(\d+)"`)
	dAttr    = regexp.MustCompile(`\bd="(\d+)"`)
	innerTag = regexp.MustCompile(`<[^>]+>`)
)

// parseTimedMarkup handles the srv3-like markup format:
// <p t="1000" d="2500">text</p> elements with millisecond attributes.
// Attribute order varies across render paths, so t and d are pulled
// out independently.
func parseTimedMarkup(payload []byte) []Segment {
	matches := pElement.FindAllSubmatch(payload, -1)
	if len(matches) == 0 {
		return nil
	}

	var segs []Segment
	for _, m := range matches {
		attrs, body := m[1], m[2]

		t := tAttr.FindSubmatch(attrs)
		if t == nil {
			continue
		}
		start, err := strconv.ParseFloat(string(t[1]), 64)
		if err != nil {
			continue
		}

		var duration float64
		if d := dAttr.FindSubmatch(attrs); d != nil {
			duration, _ = strconv.ParseFloat(string(d[1]), 64)
		}

		text := html.UnescapeString(string(innerTag.ReplaceAll(body, nil)))
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}

		segs = append(segs, Segment{
			Start:    start / 1000,
			Duration: duration / 1000,
			Text:     text,
		})
	}

	return segs
}

// rawLineDuration is the assumed length of one line when no timing
// information survives. A crude approximation; see parseRawLines.
const rawLineDuration = 3.0

// parseRawLines is the last-resort parser: every non-empty line that
// is not markup becomes a segment on a running 3-second clock. The
// timing is invented, so this only runs when both structured parsers
// found nothing at all. A JSON payload that reached this point had no
// events in it, which means "no captions", not "captions in an odd
// shape", so it is rejected rather than chopped into lines.
func parseRawLines(payload []byte) []Segment {
	if gjson.ValidBytes(payload) {
		return nil
	}

	var segs []Segment
	clock := 0.0
	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "<") {
			continue
		}

		segs = append(segs, Segment{
			Start:    clock,
			Duration: rawLineDuration,
			Text:     html.UnescapeString(line),
		})
		clock += rawLineDuration
	}

	return segs
}
