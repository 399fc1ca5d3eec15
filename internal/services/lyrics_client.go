package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"fossils/internal/models"
)

const clientTokenTTL = 5 * time.Minute

// LyricsClient talks to a remote lyrics service
type LyricsClient struct {
	client      *resty.Client
	tokenSecret string
}

// ClientOption configures a LyricsClient
type ClientOption func(*LyricsClient)

// WithTimeout bounds each request, retries included
func WithTimeout(d time.Duration) ClientOption {
	return func(c *LyricsClient) { c.client.SetTimeout(d) }
}

// WithRetryCount sets how often failed requests are retried
func WithRetryCount(n int) ClientOption {
	return func(c *LyricsClient) { c.client.SetRetryCount(n) }
}

// WithTokenSecret signs mutating requests with an HS256 bearer token
func WithTokenSecret(secret string) ClientOption {
	return func(c *LyricsClient) { c.tokenSecret = secret }
}

// NewLyricsClient creates a client for the service at baseURL
func NewLyricsClient(baseURL string, opts ...ClientOption) *LyricsClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second)

	c := &LyricsClient{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// createRequest is the POST body. ID and CreatedAt let the remote keep the
// identity the entry was given locally.
type createRequest struct {
	ID            string `json:"id,omitempty"`
	AlbumName     string `json:"albumName"`
	SongName      string `json:"songName"`
	BengaliLyrics string `json:"bengaliLyrics"`
	CreatedAt     int64  `json:"createdAt,omitempty"`
}

// Health checks that the service answers {"ok": true}
func (c *LyricsClient) Health(ctx context.Context) error {
	var result healthResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&errorResponse{}).
		Get("/api/health")

	if err := checkResponse("health", resp, err); err != nil {
		return err
	}
	if !result.OK {
		return &RemoteError{Operation: "health", StatusCode: resp.StatusCode(), Message: "service reported not ok"}
	}
	return nil
}

// List fetches every entry
func (c *LyricsClient) List(ctx context.Context) ([]models.LyricsEntry, error) {
	var entries []models.LyricsEntry
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&entries).
		SetError(&errorResponse{}).
		Get("/api/lyrics")

	if err := checkResponse("list", resp, err); err != nil {
		return nil, err
	}

	slog.Debug("Fetched remote lyrics", "count", len(entries))
	return entries, nil
}

// Create posts a new entry
func (c *LyricsClient) Create(ctx context.Context, entry models.LyricsEntry) (*models.LyricsEntry, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var created models.LyricsEntry
	resp, err := req.
		SetBody(createRequest{
			ID:            entry.ID,
			AlbumName:     entry.AlbumName,
			SongName:      entry.SongName,
			BengaliLyrics: entry.BengaliLyrics,
			CreatedAt:     entry.CreatedAt,
		}).
		SetResult(&created).
		Post("/api/lyrics")

	if err := checkResponse("create", resp, err); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update sends the patched fields of id
func (c *LyricsClient) Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var updated models.LyricsEntry
	resp, err := req.
		SetPathParam("id", id).
		SetBody(patch).
		SetResult(&updated).
		Put("/api/lyrics/{id}")

	if err := checkResponse("update", resp, err); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes id remotely
func (c *LyricsClient) Delete(ctx context.Context, id string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetPathParam("id", id).
		Delete("/api/lyrics/{id}")

	return checkResponse("delete", resp, err)
}

// request prepares a mutating request, signing it when a secret is set
func (c *LyricsClient) request(ctx context.Context) (*resty.Request, error) {
	req := c.client.R().
		SetContext(ctx).
		SetError(&errorResponse{})

	if c.tokenSecret != "" {
		token, err := SignToken(c.tokenSecret, "fossils-client", clientTokenTTL)
		if err != nil {
			return nil, &RemoteError{Operation: "sign_token", Err: err}
		}
		req.SetAuthToken(token)
	}
	return req, nil
}

// checkResponse turns transport failures and non-2xx statuses into *RemoteError
func checkResponse(operation string, resp *resty.Response, err error) error {
	if err != nil {
		return &RemoteError{Operation: operation, Err: err}
	}

	if resp.IsError() || resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		remoteErr := &RemoteError{Operation: operation, StatusCode: resp.StatusCode()}
		if e, ok := resp.Error().(*errorResponse); ok && e.Error != "" {
			remoteErr.Message = e.Error
		} else {
			remoteErr.Message = http.StatusText(resp.StatusCode())
		}
		return remoteErr
	}
	return nil
}
