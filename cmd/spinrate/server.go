package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"spinrate/internal/app/ratings"
	"spinrate/internal/app/users"
	"spinrate/internal/auth"
	"spinrate/internal/catalog"
	"spinrate/internal/httpapi"
	"spinrate/internal/store"
)

func newHTTPHandler(cfg Config, logger zerolog.Logger, dataStore *store.Store) http.Handler {
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry)

	// The external catalog client is injected once; it holds no state
	// beyond its HTTP client.
	lookup := catalog.NewDiscogsClient(cfg.DiscogsToken, cfg.DiscogsAppName, cfg.DiscogsAppVersion, cfg.DiscogsTimeout)

	userSvc := users.New(dataStore, tokens)
	ratingSvc := ratings.New(dataStore, lookup, cfg.SimilarityThreshold)

	server := httpapi.New(userSvc, ratingSvc, tokens, logger, httpapi.RateLimits{
		Read:  cfg.ReadLimitPerMinute,
		Write: cfg.WriteLimitPerMinute,
	})

	return withCORS(cfg.AllowedOrigins, server.Routes())
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
