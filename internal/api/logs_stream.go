package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	streamReconnectDelay    = time.Second
	streamReconnectMaxDelay = 15 * time.Second
)

// LogStreamEvent is one item from a log subscription: a decoded entry, or
// a transport error the stream is recovering from. Err events are
// informational; the subscription keeps reconnecting until cancelled.
type LogStreamEvent struct {
	Entry LogEntry
	Err   error
}

// SubscribeLogs opens the bridge's live log stream and delivers events on
// the returned channel until cancel is called or the parent context ends.
// The stream reconnects with exponential backoff; the channel is closed
// once the subscription is done for good.
func (c *Client) SubscribeLogs(ctx context.Context, filter LogFilter) (<-chan LogStreamEvent, func()) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan LogStreamEvent, 64)

	go func() {
		defer close(out)

		retry := backoff.NewExponentialBackOff()
		retry.InitialInterval = streamReconnectDelay
		retry.MaxInterval = streamReconnectMaxDelay
		retry.Reset()

		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			streamErr := c.streamLogs(ctx, filter, out)
			if streamErr == nil {
				return struct{}{}, nil
			}
			if errors.Is(streamErr, context.Canceled) || errors.Is(streamErr, context.DeadlineExceeded) {
				return struct{}{}, streamErr
			}
			if errors.Is(streamErr, io.EOF) {
				// Server closed the stream at a rotation boundary; reconnect.
				c.log.Debug().Msg("log stream ended, reconnecting")
			} else {
				c.log.Warn().Err(streamErr).Msg("log stream disconnected")
			}
			return struct{}{}, streamErr
		},
			backoff.WithBackOff(retry),
			backoff.WithNotify(func(err error, next time.Duration) {
				c.log.Debug().Err(err).Str("next_retry", next.String()).Msg("retrying log stream")
				if errors.Is(err, io.EOF) {
					return
				}
				// Let subscribers show the outage; drop the event if they
				// are not keeping up rather than stalling the retry loop.
				select {
				case out <- LogStreamEvent{Err: err}:
				default:
				}
			}),
		)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.log.Warn().Err(err).Msg("log stream stopped")
		}
	}()

	return out, cancel
}

// streamLogs runs one SSE connection, forwarding decoded entries until the
// server disconnects or the context is cancelled.
func (c *Client) streamLogs(ctx context.Context, filter LogFilter, out chan<- LogStreamEvent) error {
	params := url.Values{}
	if filter.Level != "" {
		params.Set("level", filter.Level)
	}
	if filter.Logger != "" {
		params.Set("logger", filter.Logger)
	}
	endpoint := c.baseURL + "/api/logs/stream"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream stays open until server disconnect, so the per-request
	// timeout must not apply here.
	streamHTTP := *c.http
	streamHTTP.Timeout = 0

	resp, err := streamHTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return &StatusError{StatusCode: resp.StatusCode}
	}

	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var data strings.Builder
	emit := func() error {
		if data.Len() == 0 {
			return nil
		}
		payload := data.String()
		data.Reset()

		var entry LogEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			c.log.Debug().Err(err).Msg("skipping malformed log event")
			return nil
		}
		select {
		case out <- LogStreamEvent{Entry: entry}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if err := emit(); err != nil {
				return err
			}
			continue
		}
		if segment, ok := strings.CutPrefix(line, "data:"); ok {
			if len(segment) > 0 && segment[0] == ' ' {
				segment = segment[1:]
			}
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(segment)
		}
		// "event:" and comment lines carry no payload for log streams.
	}

	if err := emit(); err != nil {
		return err
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return scanErr
	}
	return io.EOF
}
