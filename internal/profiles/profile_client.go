// Package profiles looks up participant reputation from the platform's
// profile directory service.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	models "github.com/oceandrift/fishcrew/internal"
)

type Client struct {
	httpClient HTTPClient
	baseURL    string
}

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Option func(*Client)

var (
	ErrProfileNotFound = errors.New("participant profile not found")
	ErrBadStatusCode   = errors.New("invalid status code from profile directory")
)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "http://profiles.internal/v1",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *Client) GetProfile(ctx context.Context, participantID uuid.UUID) (*models.ParticipantProfile, error) {
	u := fmt.Sprintf("%s/participants/%s/profile", c.baseURL, participantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ErrBadStatusCode
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var profile models.ParticipantProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
