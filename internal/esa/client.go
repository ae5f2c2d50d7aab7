// Package esa publishes daily log documents as esa.io posts.
package esa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/user/nikki/internal/types"
)

const defaultBaseURL = "https://api.esa.io"

// Client implements types.Publisher for one esa team.
type Client struct {
	token   string
	team    string
	baseURL string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// New creates a publisher posting into team with a bearer token.
func New(token, team string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		team:    team,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// postRequest is the create-post body. wip is sent as a string.
type postRequest struct {
	Name   string `json:"name"`
	BodyMD string `json:"body_md"`
	WIP    string `json:"wip"`
}

type postResponse struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

type errorResponse struct {
	Error   *string `json:"error"`
	Message *string `json:"message"`
}

// RejectedError is returned for any status other than 201 Created. When the
// body carries {error, message} the error text is exactly "error: message".
type RejectedError struct {
	StatusCode int
	Code       string
	Message    string
	Opaque     bool
	Body       string
}

func (e *RejectedError) Error() string {
	if e.Opaque {
		return fmt.Sprintf("esa responded with status %d and an unparsable body: %s", e.StatusCode, e.Body)
	}
	return e.Code + ": " + e.Message
}

// Publish creates doc as a post. Only 201 Created counts as success.
func (c *Client) Publish(ctx context.Context, doc types.Document) (*types.Published, error) {
	body, err := json.Marshal(postRequest{
		Name:   doc.Name,
		BodyMD: doc.BodyMD,
		WIP:    fmt.Sprintf("%t", doc.WIP),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal post: %w", err)
	}

	endpoint := c.baseURL + "/v1/teams/" + url.PathEscape(c.team) + "/posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, rejection(resp.StatusCode, respBody)
	}

	var created postResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		// The post exists; a body we cannot read does not undo that.
		return &types.Published{}, nil
	}
	return &types.Published{Number: created.Number, URL: created.URL}, nil
}

func rejection(status int, body []byte) *RejectedError {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error == nil || er.Message == nil {
		return &RejectedError{StatusCode: status, Opaque: true, Body: string(body)}
	}
	return &RejectedError{StatusCode: status, Code: *er.Error, Message: *er.Message}
}
