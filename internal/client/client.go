// Package client talks to an anonchat backend over its REST and realtime
// endpoints and implements backend.Backend for the terminal front-ends.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/proto"
)

const (
	restPrefix   = "/rest/v1"
	realtimePath = "/realtime/v1"
	headerAPIKey = "apikey"

	defaultTimeout = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	// Timeout bounds each REST request and the realtime handshake.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client is a remote backend.Backend.
type Client struct {
	base    *url.URL
	apiKey  string
	timeout time.Duration
	http    *http.Client
	// dialer is only set for a caller-supplied client; the default REST
	// client carries a Timeout that a long-lived socket must not inherit.
	dialer *http.Client
	log    *zerolog.Logger
}

var _ backend.Backend = (*Client)(nil)

// New creates a client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		base:    base,
		apiKey:  opts.APIKey,
		timeout: timeout,
		http:    httpClient,
		dialer:  opts.HTTPClient,
		log:     logger,
	}, nil
}

// ListRooms implements backend.RoomLister.
func (c *Client) ListRooms(ctx context.Context) ([]core.Room, error) {
	var rooms []proto.Room
	if err := c.do(ctx, http.MethodGet, restPrefix+"/rooms", nil, nil, &rooms); err != nil {
		return nil, err
	}

	out := make([]core.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ToCore())
	}
	return out, nil
}

// ListMessages implements backend.MessageReader.
func (c *Client) ListMessages(ctx context.Context, roomID string, limit int) ([]core.Message, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var msgs []proto.Message
	if err := c.do(ctx, http.MethodGet, messagesPath(roomID), query, nil, &msgs); err != nil {
		return nil, err
	}

	out := make([]core.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToCore())
	}
	return out, nil
}

// InsertMessage implements backend.MessageWriter.
func (c *Client) InsertMessage(ctx context.Context, msg core.NewMessage) error {
	body := proto.InsertMessage{UserID: msg.AuthorID, Username: msg.AuthorName, Content: msg.Text}
	return c.do(ctx, http.MethodPost, messagesPath(msg.RoomID), nil, body, nil)
}

func messagesPath(roomID string) string {
	return restPrefix + "/rooms/" + url.PathEscape(roomID) + "/messages"
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.String() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeError(resp *http.Response) error {
	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil || (body.Code == "" && body.Error == "") {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return errorFromCode(body.Code, body.Error)
}

// errorFromCode maps wire error codes back to domain sentinels.
func errorFromCode(code, msg string) error {
	switch code {
	case core.ErrCodeRoomNotFound:
		return core.ErrRoomNotFound
	case core.ErrCodeBadRequest:
		return core.ErrBadRequest
	case core.ErrCodeUnauthorized:
		return core.ErrUnauthorized
	case core.ErrCodeEmptyMessage:
		return core.ErrEmptyMessage
	case core.ErrCodeMessageTooLong:
		return core.ErrMessageTooLong
	case core.ErrCodeSlowConsumer:
		return core.ErrSlowConsumer
	}
	if code == "" {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %s", code, msg)
}
