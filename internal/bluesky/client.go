// Package bluesky publishes posts to a Bluesky account over the AT Protocol
// XRPC endpoints.
package bluesky

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lepinkainen/skypost/pkg/api"
	httputil "github.com/lepinkainen/skypost/pkg/http"
)

// ErrAuth indicates session creation failed. Nothing can be published without
// a session, so callers should treat this as fatal for the whole run.
var ErrAuth = errors.New("bluesky authentication failed")

// DefaultHost is the public Bluesky PDS endpoint.
const DefaultHost = "https://bsky.social"

// Session holds the tokens returned by com.atproto.server.createSession.
type Session struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

// Client talks to a single Bluesky host. Create it, authenticate once with
// CreateSession, then publish.
type Client struct {
	http    *httputil.Client
	host    string
	retry   *api.RetryPolicy
	session *Session
}

// NewClient creates a Bluesky client for the given host ("" uses DefaultHost).
func NewClient(host string, timeout time.Duration) *Client {
	if host == "" {
		host = DefaultHost
	}

	config := httputil.DefaultConfig()
	if timeout > 0 {
		config.Timeout = timeout
	}

	return &Client{
		http:  httputil.NewClient(config),
		host:  host,
		retry: api.ConservativeRetryPolicy(),
	}
}

// CreateSession authenticates with an identifier (handle or email) and an app
// password. Any failure is wrapped in ErrAuth.
func (c *Client) CreateSession(ctx context.Context, identifier, appPassword string) error {
	body := map[string]string{
		"identifier": identifier,
		"password":   appPassword,
	}

	resp, err := c.http.PostJSON(ctx, c.xrpc("com.atproto.server.createSession"), body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}

	var session Session
	if err := httputil.DecodeJSONResponse(resp, &session); err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if session.AccessJwt == "" || session.DID == "" {
		return fmt.Errorf("%w: incomplete session response", ErrAuth)
	}

	c.session = &session
	slog.Debug("Created Bluesky session", "handle", session.Handle, "did", session.DID)
	return nil
}

// Handle returns the authenticated handle, or "" before CreateSession.
func (c *Client) Handle() string {
	if c.session == nil {
		return ""
	}
	return c.session.Handle
}

// Publish uploads the post's image (if any) and creates the feed post record.
// Requires a prior CreateSession.
func (c *Client) Publish(ctx context.Context, post Post) error {
	if c.session == nil {
		return fmt.Errorf("%w: no session", ErrAuth)
	}

	record := buildRecord(post, time.Now().UTC())

	if post.Image != nil {
		blob, err := c.uploadBlob(ctx, post.Image.Bytes, post.Image.ContentType)
		if err != nil {
			// Losing the thumbnail is not worth losing the post
			slog.Warn("Blob upload failed, posting without image", "link", post.Link, "error", err)
		} else if record.Embed != nil {
			record.Embed.External.Thumb = blob
		}
	}

	request := map[string]any{
		"repo":       c.session.DID,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}

	operation := func() error {
		resp, err := c.authorizedPostJSON(ctx, c.xrpc("com.atproto.repo.createRecord"), request)
		if err != nil {
			return err
		}
		return drainResponse(resp)
	}

	if err := api.ExecuteWithRetry(operation, c.retry, "createRecord"); err != nil {
		return fmt.Errorf("failed to publish post for %s: %w", post.Link, err)
	}

	slog.Debug("Published post", "link", post.Link)
	return nil
}

// uploadBlob sends raw bytes to com.atproto.repo.uploadBlob and returns the
// blob reference exactly as the server produced it.
func (c *Client) uploadBlob(ctx context.Context, data []byte, contentType string) (RawBlob, error) {
	var blob RawBlob

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, "POST",
			c.xrpc("com.atproto.repo.uploadBlob"), bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+c.session.AccessJwt)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		if err := statusError(resp); err != nil {
			return err
		}

		var result struct {
			Blob RawBlob `json:"blob"`
		}
		if err := httputil.DecodeJSONResponse(resp, &result); err != nil {
			return err
		}
		blob = result.Blob
		return nil
	}

	if err := api.ExecuteWithRetry(operation, c.retry, "uploadBlob"); err != nil {
		return nil, err
	}

	return blob, nil
}

// authorizedPostJSON posts JSON with the session's bearer token and converts
// error statuses into api.HTTPError so the retry policy can classify them.
func (c *Client) authorizedPostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	encoded, err := jsonMarshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.session.AccessJwt)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) xrpc(method string) string {
	return c.host + "/xrpc/" + method
}

// statusError maps non-200 responses to api.HTTPError, closing the body.
func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := httputil.ReadResponseBody(resp)
	return &api.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
}

func drainResponse(resp *http.Response) error {
	_, err := httputil.ReadResponseBody(resp)
	return err
}
