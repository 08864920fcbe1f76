package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/cameroncuttingedge/place/auth"
	"github.com/cameroncuttingedge/place/canvas"
	"github.com/cameroncuttingedge/place/events"
	"github.com/cameroncuttingedge/place/utils"
	"github.com/cameroncuttingedge/place/websocket"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// PixelHistory serves the provenance of a single pixel.
type PixelHistory interface {
	PixelHistory(ctx context.Context, x, y, limit int) ([]canvas.DrawEvent, error)
}

type Options struct {
	CORSOrigins  []string
	RequestRate  float64
	RequestBurst int
	CookieName   string
	WriteTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP surface of the canvas.
type Server struct {
	pipeline *canvas.Pipeline
	history  PixelHistory
	hub      *websocket.Hub
	verifier auth.Verifier
	opts     Options
}

func NewServer(pipeline *canvas.Pipeline, history PixelHistory, hub *websocket.Hub, verifier auth.Verifier, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CookieName == "" {
		opts.CookieName = "token"
	}
	return &Server{
		pipeline: pipeline,
		history:  history,
		hub:      hub,
		verifier: verifier,
		opts:     opts,
	}
}

// Router builds the route table wrapped in the middleware chain.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.rootHandler).Methods("GET")
	r.Handle("/place/username", s.requireAuth(s.usernameHandler)).Methods("GET")
	r.Handle("/api/place/delay", s.requireAuth(s.delayHandler)).Methods("GET")
	r.Handle("/api/place/config", s.requireAuth(s.configHandler)).Methods("GET")
	r.Handle("/api/place/board-bitmap", s.requireAuth(s.boardHandler)).Methods("GET")
	r.Handle("/api/place/board-bitmap/pixel/", s.requireAuth(s.pixelHandler)).Methods("GET")
	r.Handle("/api/place/board-bitmap/pixel/history/", s.requireAuth(s.pixelHistoryHandler)).Methods("GET")
	r.Handle("/api/place/draw", s.requireAuth(s.drawHandler)).Methods("POST")
	r.Handle("/api/place/last-user-timestamp/", s.requireAuth(s.lastTimestampHandler)).Methods("GET")
	r.Handle("/api/place/board-bitmap/ws", &websocket.Handler{
		Hub:          s.hub,
		Verifier:     s.verifier,
		CookieName:   s.opts.CookieName,
		WriteTimeout: s.opts.WriteTimeout,
	})

	var h http.Handler = r
	if s.opts.RequestRate > 0 {
		h = newIPLimiter(s.opts.RequestRate, s.opts.RequestBurst).middleware(h)
	}
	h = handlers.CORS(
		handlers.AllowedOrigins(s.opts.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.AllowCredentials(),
	)(h)
	h = accessLog(h)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps pipeline errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *canvas.ValidationError
	var rl *canvas.RateLimitError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.Remaining.Seconds()))))
		http.Error(w, rl.Error(), http.StatusTooManyRequests)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func queryXY(r *http.Request) (int, int, error) {
	x, err := queryInt(r, "x")
	if err != nil {
		return 0, 0, err
	}
	y, err := queryInt(r, "y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Place API"})
}

func (s *Server) usernameHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello " + Username(r)})
}

func (s *Server) delayHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"delay": s.pipeline.Bounds().Delay.Seconds()})
}

func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, events.FromBounds(s.pipeline.Bounds()))
}

func (s *Server) boardHandler(w http.ResponseWriter, r *http.Request) {
	board, err := s.pipeline.Board(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.ConvertBoardToInts(board))
}

func (s *Server) pixelHandler(w http.ResponseWriter, r *http.Request) {
	x, y, err := queryXY(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := s.pipeline.Pixel(r.Context(), x, y)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pixel_color": int(c)})
}

func (s *Server) pixelHistoryHandler(w http.ResponseWriter, r *http.Request) {
	x, y, err := queryXY(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.pipeline.Validate(canvas.DrawRequest{X: x, Y: y}); err != nil {
		writeError(w, r, err)
		return
	}

	limit := defaultHistoryLimit
	if r.URL.Query().Get("limit") != "" {
		limit, err = queryInt(r, "limit")
		if err != nil || limit < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(limit, maxHistoryLimit)
	}

	draws, err := s.history.PixelHistory(r.Context(), x, y, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]events.Message, len(draws))
	for i, d := range draws {
		out[i] = events.FromDraw(d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) drawHandler(w http.ResponseWriter, r *http.Request) {
	var req canvas.DrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("error decoding JSON: %v", err), http.StatusBadRequest)
		return
	}
	req.User = Username(r)

	// An admitted draw runs to completion even if the client goes away.
	ev, err := s.pipeline.Submit(context.WithoutCancel(r.Context()), req, s.opts.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().
		Str("user", ev.User).
		Int("x", ev.X).
		Int("y", ev.Y).
		Int("color", int(ev.Color)).
		Int("connectionsCount", s.hub.Len()).
		Msg("Pixel updated")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pixel updated successfully"})
}

func (s *Server) lastTimestampHandler(w http.ResponseWriter, r *http.Request) {
	ts, ok, err := s.pipeline.LastDraw(r.Context(), Username(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		http.Error(w, "No timestamp found for user", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]time.Time{"timestamp": ts})
}
