package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/netx"
)

// HTTPClient implements Client over the facevote JSON API.
type HTTPClient struct {
	baseURL            string
	http               *http.Client
	requestTimeout     time.Duration
	recognitionTimeout time.Duration
}

// NewHTTPClient returns a client for the API rooted at baseURL. Recognition
// calls get their own, longer timeout because the server waits for the
// recognizer before answering.
func NewHTTPClient(baseURL string, requestTimeout, recognitionTimeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:            strings.TrimRight(baseURL, "/"),
		http:               &http.Client{},
		requestTimeout:     requestTimeout,
		recognitionTimeout: recognitionTimeout,
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

func (c *HTTPClient) FaceRecognition(ctx context.Context) (*RecognitionResponse, error) {
	resp := &RecognitionResponse{}
	if err := c.do(ctx, c.recognitionTimeout, http.MethodPost, "/face-recognition", nil, nil, resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Username == "" {
		return nil, fmt.Errorf("%w: success response without username", netx.ErrDecode)
	}
	return resp, nil
}

func (c *HTTPClient) LookupUser(ctx context.Context, username string) (*UserRecord, error) {
	var records []UserRecord
	if err := c.do(ctx, c.requestTimeout, http.MethodGet, "/user/username/"+url.PathEscape(username), nil, nil, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &StatusError{Status: http.StatusOK, Message: fmt.Sprintf("User %s Not Found", username), Err: common.ErrorNotFound}
	}
	return &records[0], nil
}

func (c *HTTPClient) VerifyUser(ctx context.Context, username string) (bool, error) {
	var resp struct {
		Eligible bool `json:"eligible"`
	}
	if err := c.do(ctx, c.requestTimeout, http.MethodGet, "/api/users/verify/"+url.PathEscape(username), nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Eligible, nil
}

func (c *HTTPClient) SubmitVote(ctx context.Context, req VoteRequest, token string) (*VoteResponse, error) {
	var header http.Header
	if token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + token}}
	}
	resp := &VoteResponse{}
	if err := c.do(ctx, c.requestTimeout, http.MethodPost, "/api/vote/submit", header, req, resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &StatusError{Status: http.StatusOK, Message: resp.Error, Err: ErrServer}
	}
	return resp, nil
}

// do performs one request. A non-2xx status becomes a StatusError carrying
// the body's error text; transport failures wrap ErrUnavailable.
func (c *HTTPClient) do(ctx context.Context, timeout time.Duration, method, path string, header http.Header, in, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var raw json.RawMessage
	status, err := netx.DoJSON(ctx, c.http, method, c.baseURL+path, header, in, &raw)
	if err != nil {
		if errors.Is(err, netx.ErrTransport) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if status == 0 {
			return err
		}
	}

	if status < 200 || status > 299 {
		var body errorBody
		if err == nil {
			_ = json.Unmarshal(raw, &body)
		}
		return statusError(status, body.text())
	}
	if err != nil {
		return err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", netx.ErrDecode, err)
		}
	}
	return nil
}
