package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/server/recognition"
	"github.com/dmitrijs2005/facevote/internal/server/transcripts"
)

const msgRateLimited = "Too many face recognition attempts, try again later"

// defaultArchiveTimeout bounds a transcript upload made after the response
// has been sent.
const defaultArchiveTimeout = 5 * time.Second

func (s *Server) handleFaceRecognition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := resolveClientIP(r, s.deps.TrustProxy)

	if err := s.deps.Limiter.Allow(ctx, client); err != nil {
		if errors.Is(err, common.ErrRateLimited) {
			s.deps.Metrics.IncRateLimited()
			s.logger.Warn(ctx, "recognition rate limited", "client", client)
			writeJSON(w, http.StatusTooManyRequests, recognition.Response{
				Success: false,
				Error:   msgRateLimited,
				Message: msgRateLimited,
			})
			return
		}
		// limiter backend down: recognition stays available
		s.logger.Warn(ctx, "attempt limiter unavailable", "error", err)
	}

	res := s.deps.Recognizer.Invoke(ctx, s.deps.Request)
	s.deps.Metrics.ObserveRecognition(res.Kind.String(), res.Transcript.Elapsed)

	if res.Succeeded() {
		if err := s.deps.Limiter.Reset(ctx, client); err != nil {
			s.logger.Warn(ctx, "reset attempt counter", "error", err)
		}
	}

	env := s.deps.Translator.Translate(ctx, res)
	writeJSON(w, env.Status, env.Body)
	if err := http.NewResponseController(w).Flush(); err != nil {
		s.logger.Debug(ctx, "flush recognition response", "error", err)
	}

	s.archive(ctx, res, client)
}

func (s *Server) archive(ctx context.Context, res recognition.Result, client string) {
	rec := transcripts.NewRecord(res, client, s.now())
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.archiveTimeout)
	defer cancel()

	key, err := s.deps.Archive.Store(storeCtx, rec)
	if err != nil {
		s.logger.Error(ctx, "archive transcript", "error", err, "id", rec.ID)
		return
	}
	if key != "" {
		s.logger.Debug(ctx, "transcript archived", "key", key)
	}
}
