// Package httpapi exposes the server's JSON API: the face-recognition
// route, voter lookup and eligibility, ballot submission, health and
// Prometheus metrics.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/facevote/internal/logging"
	"github.com/dmitrijs2005/facevote/internal/server/limiter"
	"github.com/dmitrijs2005/facevote/internal/server/metrics"
	"github.com/dmitrijs2005/facevote/internal/server/models"
	"github.com/dmitrijs2005/facevote/internal/server/recognition"
	"github.com/dmitrijs2005/facevote/internal/server/transcripts"
)

const shutdownTimeout = 5 * time.Second

type VoterDirectory interface {
	Lookup(ctx context.Context, username string) (*models.Voter, error)
	Verify(ctx context.Context, username string) (bool, error)
}

type BallotRecorder interface {
	Submit(ctx context.Context, voter, candidate string, castAt time.Time) (*models.Ballot, error)
	Tally(ctx context.Context) (map[string]int64, error)
}

// TokenVerifier returns the username a voter token was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Deps bundles what the handlers need. Tokens may be nil, in which case
// ballots are accepted without a voter token. Limiter, Archive and Metrics
// fall back to no-op implementations when nil. TrustProxy makes the
// attempt limiter key on X-Forwarded-For.
type Deps struct {
	Recognizer recognition.Recognizer
	Request    recognition.Request
	Translator *recognition.Translator
	Limiter    limiter.Limiter
	Archive    transcripts.Archive
	Metrics    *metrics.Metrics
	Voters     VoterDirectory
	Ballots    BallotRecorder
	Tokens     TokenVerifier
	TrustProxy bool
}

type Server struct {
	mux            *http.ServeMux
	addr           string
	logger         logging.Logger
	deps           Deps
	now            func() time.Time
	archiveTimeout time.Duration
}

func New(addr string, l logging.Logger, d Deps) *Server {
	if d.Limiter == nil {
		d.Limiter = limiter.Nop{}
	}
	if d.Archive == nil {
		d.Archive = transcripts.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Translator == nil {
		d.Translator = recognition.NewTranslator(nil, l)
	}

	s := &Server{
		mux:            http.NewServeMux(),
		addr:           addr,
		logger:         l.With("module", "http_server"),
		deps:           d,
		now:            time.Now,
		archiveTimeout: defaultArchiveTimeout,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /face-recognition", s.handleFaceRecognition)
	s.mux.HandleFunc("POST /op", s.handleFaceRecognition)

	s.mux.HandleFunc("GET /user/username/{username}", s.handleUserByUsername)
	s.mux.HandleFunc("GET /api/users/verify/{username}", s.handleVerifyUser)

	s.mux.HandleFunc("POST /api/vote/submit", s.handleSubmitVote)
	s.mux.HandleFunc("GET /api/vote/tally", s.handleTally)

	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.deps.Metrics.Handler())
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLog(s.mux)
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve handles requests on listen until ctx is cancelled, then shuts the
// server down gracefully.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
