package api

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/cameroncuttingedge/place/auth"
	"github.com/felixge/httpsnoop"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type ctxKey int

const userKey ctxKey = 0

// Username returns the verified user attached by requireAuth.
func Username(r *http.Request) string {
	user, _ := r.Context().Value(userKey).(string)
	return user
}

func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r)
		if token == "" {
			http.Error(w, "You are not authenticated. Please provide a token in the 'Authorization' header.", http.StatusUnauthorized)
			return
		}
		user, err := s.verifier.Verify(token)
		if err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Token rejected")
			http.Error(w, "Your token is invalid. Please provide a valid token in the 'Authorization' header.", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// accessLog records one line per request with its status and duration.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", m.Code).
			Int64("bytes", m.Written).
			Dur("duration", m.Duration).
			Msg("Request")
	})
}

// ipLimiter caps the request rate of every client address.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, exists := l.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.get(ip).Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
