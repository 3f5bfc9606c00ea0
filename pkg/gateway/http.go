package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dailyfeed/feedsync.go/internal/codec"
	"github.com/dailyfeed/feedsync.go/internal/rand"
	"github.com/dailyfeed/feedsync.go/pkg/feed"
	"github.com/dailyfeed/feedsync.go/pkg/logger"
)

const requestIDLength = 16

// Client implements the three gateway interfaces over HTTP with JSON bodies.
type Client struct {
	BaseURL string
	Token   string

	HTTPClient *http.Client

	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	log         logger.Logger
}

func NewClient(baseURL, token string, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop{}
	}
	return &Client{
		BaseURL:     baseURL,
		Token:       token,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		marshaler:   codec.JSON{},
		unmarshaler: codec.JSON{},
		log:         log,
	}
}

func (c *Client) Authenticated() bool {
	return c.Token != ""
}

type pageResponse struct {
	Edges    []feed.Edge `json:"edges"`
	PageInfo struct {
		EndCursor   string `json:"endCursor"`
		HasNextPage bool   `json:"hasNextPage"`
	} `json:"pageInfo"`
}

func (c *Client) FetchPage(ctx context.Context, req PageRequest) (feed.Page, error) {
	var res pageResponse
	if err := c.post(ctx, "/feed", req, &res); err != nil {
		return feed.Page{}, fmt.Errorf("%w: %w", feed.ErrFetch, err)
	}
	return feed.Page{
		Edges:       res.Edges,
		EndCursor:   res.PageInfo.EndCursor,
		HasNextPage: res.PageInfo.HasNextPage,
	}, nil
}

type adRequest struct {
	HasPrevious bool `json:"hasPrevious"`
}

func (c *Client) FetchAd(ctx context.Context, hasPrevious bool) (feed.Ad, error) {
	var ad feed.Ad
	if err := c.post(ctx, "/ads", adRequest{HasPrevious: hasPrevious}, &ad); err != nil {
		return feed.Ad{}, fmt.Errorf("%w: %w", feed.ErrFetch, err)
	}
	ad.FetchedAtUnix = time.Now().Unix()
	return ad, nil
}

type mutationRequest struct {
	EntityID string `json:"entityId"`
	Action   Action `json:"action"`
}

type mutationResponse struct {
	Success bool `json:"success"`
}

func (c *Client) Submit(ctx context.Context, entityID string, action Action) error {
	var res mutationResponse
	if err := c.post(ctx, "/mutate", mutationRequest{EntityID: entityID, Action: action}, &res); err != nil {
		return fmt.Errorf("%w: %w", feed.ErrMutation, err)
	}
	if !res.Success {
		return fmt.Errorf("%w: server rejected %s for %s", feed.ErrMutation, action, entityID)
	}
	return nil
}

// post issues one JSON request and decodes the JSON response into dst.
// Only transport-level and non-2xx failures are reported; no structured
// error body is assumed.
func (c *Client) post(ctx context.Context, path string, body, dst any) error {
	payload, err := c.marshaler.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	requestID := rand.String(requestIDLength)
	req.Header.Set("X-Request-ID", requestID)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", "path", path, "request_id", requestID, "error", err)
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.log.Debug("request rejected", "path", path, "request_id", requestID, "status", res.StatusCode)
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	if err := c.unmarshaler.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
