package recognition

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/facevote/internal/logging"
)

const (
	MsgSuccess     = "Face recognition successful"
	MsgFailed      = "Face recognition failed"
	MsgSystemError = "Face recognition system error"
	MsgParseError  = "Error parsing face recognition result"
	MsgTimeout     = "Face recognition timed out"
)

// Response is the JSON body returned by the face-recognition route.
type Response struct {
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Envelope struct {
	Status int
	Body   Response
}

// TokenIssuer mints a voter credential for a recognized username.
type TokenIssuer interface {
	GenerateToken(username string) (string, error)
}

type Translator struct {
	issuer TokenIssuer
	logger logging.Logger
}

// NewTranslator returns a translator. issuer may be nil, in which case no
// token is attached to successful responses.
func NewTranslator(issuer TokenIssuer, l logging.Logger) *Translator {
	return &Translator{issuer: issuer, logger: l.With("module", "translator")}
}

func (t *Translator) Translate(ctx context.Context, res Result) Envelope {
	env := t.envelope(ctx, res)

	attrs := []any{
		"kind", res.Kind.String(),
		"status", env.Status,
		"elapsed", res.Transcript.Elapsed,
	}
	if res.Kind == KindSuccess {
		attrs = append(attrs, "username", res.Identity)
	} else {
		attrs = append(attrs, "detail", res.Detail)
	}

	switch {
	case env.Status >= http.StatusInternalServerError:
		t.logger.Error(ctx, "face recognition", attrs...)
	case env.Status >= http.StatusBadRequest:
		t.logger.Warn(ctx, "face recognition", attrs...)
	default:
		t.logger.Info(ctx, "face recognition", attrs...)
	}
	return env
}

func (t *Translator) envelope(ctx context.Context, res Result) Envelope {
	switch res.Kind {
	case KindSuccess:
		body := Response{Success: true, Username: res.Identity, Message: MsgSuccess}
		if t.issuer != nil {
			tok, err := t.issuer.GenerateToken(res.Identity)
			if err != nil {
				t.logger.Error(ctx, "issue voter token", "error", err)
				return errorEnvelope(http.StatusInternalServerError, MsgSystemError)
			}
			body.Token = tok
		}
		return Envelope{Status: http.StatusCreated, Body: body}

	case KindRecognitionFailed:
		return Envelope{
			Status: http.StatusUnauthorized,
			Body:   Response{Success: false, Error: res.Detail, Message: MsgFailed},
		}

	case KindTimeout:
		return errorEnvelope(http.StatusInternalServerError, MsgTimeout)
	case KindParseError:
		return errorEnvelope(http.StatusInternalServerError, MsgParseError)
	default:
		return errorEnvelope(http.StatusInternalServerError, MsgSystemError)
	}
}

func errorEnvelope(status int, msg string) Envelope {
	return Envelope{Status: status, Body: Response{Success: false, Error: msg, Message: msg}}
}
