package main

import (
	"log"
	"net/http"
	"time"

	"github.com/jeranaias/tanaghum/internal/audio"
	"github.com/jeranaias/tanaghum/internal/captions"
	"github.com/jeranaias/tanaghum/internal/config"
	"github.com/jeranaias/tanaghum/internal/meta"
	"github.com/jeranaias/tanaghum/internal/mirrors"
	"github.com/jeranaias/tanaghum/internal/search"
	"github.com/jeranaias/tanaghum/internal/server"
	"github.com/jeranaias/tanaghum/internal/tube"
)

func main() {
	cfg := config.Load()

	client := &tube.Client{
		HTTP: &http.Client{
			Timeout: cfg.AttemptTimeout + 2*time.Second,
		},
		InnertubeKey: cfg.InnertubeKey,
		UserAgent:    cfg.UserAgent,
		MobileAgent:  cfg.MobileAgent,
	}

	registry := mirrors.New(cfg.Mirrors)

	captionsResolver := &captions.Resolver{
		Tube:    client,
		Mirrors: registry,
		Timeout: cfg.AttemptTimeout,
	}

	srv := &server.Server{
		Meta: &meta.Resolver{
			Tube:    client,
			Timeout: cfg.AttemptTimeout,
		},
		Captions: captionsResolver,
		Audio: &audio.Resolver{
			Tube:    client,
			Mirrors: registry,
			Extractor: &audio.Extractor{
				Tube:    client,
				BaseURL: cfg.ExtractorURL,
				Enabled: cfg.ExtractorEnabled,
			},
			Prober:  captionsResolver,
			Timeout: cfg.AttemptTimeout,
		},
		Search: &search.Resolver{
			Tube:           client,
			LocaleTerm:     cfg.SearchLocaleTerm,
			MaxResults:     cfg.MaxSearchResults,
			MaxQueryLength: cfg.MaxQueryLength,
			Timeout:        cfg.AttemptTimeout,
		},
	}

	log.Printf("[INFO]: starting on %s with %d mirrors", cfg.Port, registry.Len())
	if err := srv.App().Listen(cfg.Port); err != nil {
		log.Fatalf("[ERROR]: server stopped: %v", err)
	}
}
