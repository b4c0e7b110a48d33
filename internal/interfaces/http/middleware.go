package httpinterface

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/metrics"
	"github.com/vigil-network/vigil-daemon/pkg/httpauth"
	"github.com/vigil-network/vigil-daemon/pkg/macaroons"
	"go.uber.org/ratelimit"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

type contextKey string

const partyContextKey contextKey = "party"

// requestLogger records every request in the debug log and feeds the
// prometheus counters with the matched route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		metrics.ObserveRequest(route, r.Method, ww.Status(), started)
		log.Debugf(
			"%s %s %d %s",
			r.Method, r.URL.Path, ww.Status(), time.Since(started),
		)
	})
}

// signatureAuth authenticates the caller from the request signature headers
// and stores the resulting party id in the request context. The body is
// restored so that handlers can decode it as usual.
func signatureAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		party, err := httpauth.VerifyRequest(r, body, time.Now())
		if err != nil {
			writeAuthError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), partyContextKey, party)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func partyFromContext(ctx context.Context) domain.Party {
	party, _ := ctx.Value(partyContextKey).(string)
	return domain.Party(party)
}

// rateLimited paces the requests of a route with a shared leaky bucket.
// Requests over the rate are delayed, not dropped, keeping the screening
// fold from being hammered. A non-positive rate disables the limiter.
func rateLimited(requestsPerSecond int) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := ratelimit.New(requestsPerSecond)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter.Take()
			next.ServeHTTP(w, r)
		})
	}
}

// macaroonAuth gates a route behind a macaroon granting the given entity and
// action. It is a no-op when the service runs with macaroons disabled.
func (s *service) macaroonAuth(entity, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.opts.NoMacaroons {
				next.ServeHTTP(w, r)
				return
			}

			macBytes, err := macaroons.FromRequest(r)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			if err := s.opts.MacaroonSvc.ValidateMacaroon(
				r.Context(), macBytes,
				[]bakery.Op{{Entity: entity, Action: action}},
			); err != nil {
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
