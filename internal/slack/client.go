// Package slack fetches channel history from the Slack Web API.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/user/nikki/internal/types"
)

const defaultBaseURL = "https://slack.com/api"

// Client implements types.Source over conversations.history.
type Client struct {
	token    string
	baseURL  string
	paginate bool
	limit    int
	client   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithPagination makes History follow response_metadata.next_cursor until
// the last page. Each page is requested once.
func WithPagination(enabled bool) Option {
	return func(c *Client) { c.paginate = enabled }
}

// WithLimit sets the page size sent as the limit parameter. Zero leaves it
// to the API default.
func WithLimit(n int) Option {
	return func(c *Client) { c.limit = n }
}

// New creates a Slack history client authenticated with token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type historyMessage struct {
	Text string `json:"text"`
	TS   string `json:"ts"`
}

type responseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

type historyResponse struct {
	OK               bool             `json:"ok"`
	Error            string           `json:"error,omitempty"`
	Messages         []historyMessage `json:"messages"`
	HasMore          bool             `json:"has_more"`
	ResponseMetadata responseMetadata `json:"response_metadata"`
}

// HTTPStatusError is returned when the API answers with a non-200 status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("get slack history failed (status %d): %s", e.StatusCode, e.Body)
}

// RejectedError is returned when the API answers with ok: false. Messages
// holds whatever message list came back with it.
type RejectedError struct {
	Code     string
	Messages []types.RawMessage
}

func (e *RejectedError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("slack response is not ok: %v", e.Messages)
	}
	return fmt.Sprintf("slack response is not ok (%s): %v", e.Code, e.Messages)
}

// History returns the channel's messages in the order Slack returned them.
// An empty channel leaves the channel parameter out of the request.
func (c *Client) History(ctx context.Context, channel string) ([]types.RawMessage, error) {
	var (
		out    []types.RawMessage
		cursor string
	)
	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, channel, cursor)
		if err != nil {
			return nil, err
		}
		msgs := convert(resp.Messages)
		if !resp.OK {
			return nil, &RejectedError{Code: resp.Error, Messages: msgs}
		}
		out = append(out, msgs...)
		slog.Debug("fetched slack history page", "page", page, "messages", len(msgs), "has_more", resp.HasMore)

		next := resp.ResponseMetadata.NextCursor
		if c.paginate && resp.HasMore && next != "" && next == cursor {
			slog.Warn("slack returned the same cursor twice; stopping pagination", "page", page)
			return out, nil
		}
		cursor = next
		if !c.paginate || !resp.HasMore || cursor == "" {
			if resp.HasMore && !c.paginate {
				slog.Warn("slack history has more pages; only the first page was read")
			}
			return out, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, channel, cursor string) (*historyResponse, error) {
	u, err := url.Parse(c.baseURL + "/conversations.history")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	if channel != "" {
		q.Set("channel", channel)
	}
	if c.limit > 0 {
		q.Set("limit", strconv.Itoa(c.limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// The request URL carries the token.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = c.baseURL + "/conversations.history"
		}
		return nil, fmt.Errorf("history request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result historyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &result, nil
}

func convert(in []historyMessage) []types.RawMessage {
	out := make([]types.RawMessage, len(in))
	for i, m := range in {
		out[i] = types.RawMessage{Text: m.Text, Timestamp: m.TS}
	}
	return out
}
