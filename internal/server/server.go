// Package server exposes the capability resolvers over HTTP. The
// dominant response style is "always 200": a capability with no data
// answers available:false so the calling UI keeps working. Hard status
// codes are reserved for caller mistakes (400) and genuine breakage
// (500, e.g. the search page format changed).
package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jeranaias/tanaghum/internal/audio"
	"github.com/jeranaias/tanaghum/internal/captions"
	"github.com/jeranaias/tanaghum/internal/meta"
	"github.com/jeranaias/tanaghum/internal/search"
	"github.com/jeranaias/tanaghum/internal/tube"
)

type Server struct {
	Meta     *meta.Resolver
	Captions *captions.Resolver
	Audio    *audio.Resolver
	Search   *search.Resolver
}

// App builds the fiber application with all capability routes wired.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "tanaghum",
		DisableStartupMessage: true,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/api/metadata/:id", s.handleMetadata)
	app.Get("/api/captions/:id", s.handleCaptions)
	app.Get("/api/audio/:id", s.handleAudio)
	app.Get("/api/search", s.handleSearch)

	return app
}

func videoID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if !tube.ValidID(id) {
		return "", fiber.NewError(http.StatusBadRequest, "invalid video id")
	}
	return id, nil
}

func (s *Server) handleMetadata(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}

	m, err := s.Meta.Resolve(c.UserContext(), id)
	if err != nil {
		log.Printf("[WARN]: metadata unavailable for %q: %v", id, err)
		return c.JSON(fiber.Map{
			"videoId":   id,
			"available": false,
			"error":     "metadata unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"videoId":         m.VideoID,
		"title":           m.Title,
		"author":          m.Author,
		"authorUrl":       m.AuthorURL,
		"thumbnail":       m.Thumbnail,
		"thumbnailWidth":  m.ThumbnailWidth,
		"thumbnailHeight": m.ThumbnailHeight,
		"duration":        m.DurationSeconds,
		"captions":        fiber.Map{"available": m.CaptionsAvailable},
	})
}

func (s *Server) handleCaptions(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}

	transcript, err := s.Captions.Resolve(c.UserContext(), id)
	if err != nil {
		log.Printf("[WARN]: captions unavailable for %q: %v", id, err)
		return c.JSON(fiber.Map{
			"videoId":   id,
			"available": false,
			"error":     "no captions found for this video",
		})
	}

	return c.JSON(fiber.Map{
		"videoId":            id,
		"available":          true,
		"language":           transcript.Language,
		"languageName":       transcript.LanguageName,
		"isAutoGenerated":    transcript.AutoGenerated,
		"trackCount":         transcript.TrackCount,
		"availableLanguages": transcript.AvailableLanguages,
		"segments":           transcript.Segments,
		"fullText":           transcript.FullText,
		"wordCount":          transcript.WordCount,
	})
}

func (s *Server) handleAudio(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}

	result, err := s.Audio.Resolve(c.UserContext(), id)
	if err != nil {
		log.Printf("[WARN]: audio unavailable for %q: %v", id, err)
		return c.JSON(fiber.Map{
			"videoId":   id,
			"available": false,
			"error":     "no audio stream found",
		})
	}

	if result.Stream == nil {
		return c.JSON(fiber.Map{
			"videoId":     id,
			"available":   false,
			"error":       "no audio stream found",
			"hasCaptions": result.HasCaptions,
			"suggestion":  "captions are available for this video",
		})
	}

	stream := result.Stream
	return c.JSON(fiber.Map{
		"videoId":   id,
		"available": true,
		"audioUrl":  stream.URL,
		"mimeType":  stream.MimeType,
		"bitrate":   stream.Bitrate,
		"duration":  stream.DurationSeconds,
		"quality":   stream.Quality,
		"expiresAt": stream.ExpiresAt,
	})
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	filters := search.Filters{
		MinDuration: c.QueryInt("minDuration", 0),
		MaxDuration: c.QueryInt("maxDuration", 0),
	}

	videos, err := s.Search.Resolve(c.UserContext(), c.Query("q"), filters)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			return fiber.NewError(http.StatusBadRequest, "search query is required")
		}

		// Full detail goes to the log only; responses carry a short,
		// stable message.
		log.Printf("[ERROR]: search failed: %v", err)
		if errors.Is(err, search.ErrNoStructure) {
			return fiber.NewError(http.StatusInternalServerError, "search results structure missing")
		}
		return fiber.NewError(http.StatusInternalServerError, "search upstream unreachable")
	}

	return c.JSON(fiber.Map{
		"query":       c.Query("q"),
		"resultCount": len(videos),
		"videos":      videos,
	})
}
