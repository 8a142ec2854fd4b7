// Package slack is a minimal client for the parts of the Slack Web API the
// signup plugin talks to.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultEndpoint  = "https://slack.com/api"
	DefaultUserAgent = "Neucore Slack Signup (https://github.com/harrybrwn/neucore-slack)"

	maxResponseSize = 1 << 20
)

// HTTPClient represents the functionality we need from an *http.Client, or
// similar.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client posts messages to a single Slack channel using a bot token.
type Client struct {
	HTTP      HTTPClient
	Endpoint  string
	Token     string
	Channel   string
	UserAgent string
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := Client{
		HTTP:      http.DefaultClient,
		Endpoint:  DefaultEndpoint,
		UserAgent: DefaultUserAgent,
	}
	for _, o := range opts {
		o(&c)
	}
	return &c
}

func WithToken(token string) ClientOption       { return func(c *Client) { c.Token = token } }
func WithChannel(channel string) ClientOption   { return func(c *Client) { c.Channel = channel } }
func WithHTTPClient(h HTTPClient) ClientOption  { return func(c *Client) { c.HTTP = h } }
func WithUserAgent(ua string) ClientOption      { return func(c *Client) { c.UserAgent = ua } }
func WithEndpoint(endpoint string) ClientOption { return func(c *Client) { c.Endpoint = endpoint } }

// APIError is an "ok": false response from the Slack API.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s failed: %s", e.Method, e.Code)
}

type response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Warning string `json:"warning"`
}

// PostMessage sends text to the configured channel.
//
// See https://api.slack.com/methods/chat.postMessage
func (c *Client) PostMessage(ctx context.Context, text string) error {
	if len(c.Token) == 0 {
		return errors.New("no slack token configured")
	}
	if len(c.Channel) == 0 {
		return errors.New("no slack channel configured")
	}
	return c.call(ctx, "chat.postMessage", url.Values{
		"channel": []string{c.Channel},
		"text":    []string{text},
	})
}

func (c *Client) call(ctx context.Context, method string, params url.Values) error {
	u := strings.TrimSuffix(c.Endpoint, "/") + "/" + method + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to build request for %q", method)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("User-Agent", c.UserAgent)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to call %q", method)
	}
	// written this way to appease errcheck
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		return errors.Errorf("POST %q unexpected status: %s", method, res.Status)
	}
	var r response
	if err = json.NewDecoder(io.LimitReader(res.Body, maxResponseSize)).Decode(&r); err != nil {
		return errors.Wrapf(err, "failed to decode %q response", method)
	}
	if !r.OK {
		return &APIError{Method: method, Code: r.Error}
	}
	return nil
}
