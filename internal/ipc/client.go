package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
	"github.com/speedwagon-io/nitrosense/internal/model"
)

// Client talks to a running daemon over its socket.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// DialOptions control how hard Dial tries before giving up.
type DialOptions struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultDialOptions() DialOptions {
	return DialOptions{
		Attempts:     3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
	}
}

// Dial connects to the socket at path, retrying with backoff when the daemon
// is not accepting yet.
func Dial(ctx context.Context, log *slog.Logger, path string, opts DialOptions) (*Client, error) {
	var d net.Dialer
	var conn net.Conn

	b := backoff{initial: opts.InitialDelay, ceiling: opts.MaxDelay}
	err := b.retry(ctx, opts.Attempts, func(attempt int) error {
		var err error
		conn, err = d.DialContext(ctx, "unix", path)
		if err != nil {
			log.Debug("connect failed",
				slog.String("socket", path),
				slog.Int("attempt", attempt+1),
				sl.Err(err),
			)
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("connect to %s (is the daemon running?): %w", path, err)
	}

	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Send writes one request and waits for its response line.
func (c *Client) Send(req model.Request) (model.Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return model.Response{}, fmt.Errorf("encode request: %w", err)
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return model.Response{}, fmt.Errorf("send request: %w", err)
	}

	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return model.Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp model.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return model.Response{}, fmt.Errorf("unexpected response: %w", err)
	}
	return resp, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
