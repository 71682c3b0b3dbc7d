package flagsync

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scr2em/kitbase-go/models"
	"github.com/scr2em/kitbase-go/transport"
)

const (
	streamEventConfig    = "config"
	streamEventHeartbeat = "heartbeat"

	maxStreamBackoff = 30 * time.Second
)

// runStream maintains the server-push channel: connect, consume, reconnect
// with backoff. A server that refuses the stream endpoint outright switches
// the controller to polling.
func (c *Controller) runStream(ctx context.Context) {
	defer c.wg.Done()

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		resp, err := c.transport.OpenStream(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if streamUnsupported(err) {
				c.logger.Warn("streaming not supported by server, falling back to polling")
				interval := c.pollInterval
				if interval <= 0 {
					interval = DefaultPollInterval
				}
				c.wg.Add(1)
				go c.runPoller(ctx, interval)
				return
			}
			c.emitError(fmt.Errorf("stream connect: %w", err))
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxStreamBackoff)
			continue
		}

		backoff = time.Second
		err = c.consumeStream(ctx, resp.Body)
		resp.Body.Close()
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, io.EOF) {
			c.emitError(fmt.Errorf("stream: %w", err))
		}
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

// consumeStream reads SSE frames until the connection drops. Each frame is
// an event name plus one or more data lines terminated by a blank line;
// comment and id lines are skipped.
func (c *Controller) consumeStream(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var event string
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			c.handleStreamEvent(event, data.String())
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// comment / keepalive
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

// handleStreamEvent applies a pushed configuration the same way as a fetch.
// Heartbeats and unknown events are no-ops.
func (c *Controller) handleStreamEvent(event, data string) {
	switch event {
	case streamEventConfig:
		var cfg models.Configuration
		if err := json.Unmarshal([]byte(data), &cfg); err != nil {
			c.emitError(fmt.Errorf("stream: decode configuration: %w", err))
			return
		}
		if err := c.apply(&cfg); err != nil {
			c.emitError(err)
		}
	case streamEventHeartbeat, "":
		// no-op
	}
}

// streamUnsupported reports whether the server refused the stream endpoint
// in a way that will not heal by reconnecting.
func streamUnsupported(err error) bool {
	var ae *transport.APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.Status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return false
}

// sleepCtx waits d or until ctx is done; reports whether the wait completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
