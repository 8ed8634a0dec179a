package handler

import (
	"log"
	"net/http"
	"time"

	"shortlink-service/internal/util"
)

// statusRecorder captures the status code so the create limiter can hand back
// quota for requests whose outcome was itself a rejection.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// CreateLimitMiddleware enforces the hard cap on mapping creation. Rejections
// carry machine-readable quota fields so callers can back off.
func (h *Handler) CreateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := util.ClientIP(r)
		dec := h.CreateLimiter.Allow(origin)
		if !dec.Allowed {
			writeJSON(w, http.StatusTooManyRequests, throttledResponse{
				Message:   "You have created too many URLs recently.",
				Limit:     dec.Limit,
				Current:   dec.Current,
				Remaining: dec.Remaining,
				ResetTime: dec.ResetAt,
			})
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status >= http.StatusBadRequest {
			h.CreateLimiter.Refund(origin)
		}
	}
}

// GuardMiddleware rate-limits the redirect path per origin.
func (h *Handler) GuardMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.Guard.Allow(util.ClientIP(r)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// delayMiddleware suspends repeated requests from the same origin for an
// increasing duration. The sleep happens before any store work and aborts if
// the client goes away.
func (h *Handler) delayMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d := h.Delayer.Delay(util.ClientIP(r)); d > 0 {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Println("request:", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
