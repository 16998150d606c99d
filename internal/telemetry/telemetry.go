/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in, anonymous wizard usage events and crash
// reports. Nothing is sent unless the user opted in and a URL is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"runtime"
	"sync"
	"time"

	applog "campaignwizard/internal/log"
	"campaignwizard/internal/version"
)

// Kind names a usage event.
type Kind string

const (
	BriefAnalyzed     Kind = "brief_analyzed"
	PromptsGenerated  Kind = "prompts_generated"
	AssetsGenerated   Kind = "assets_generated"
	ImagesEvaluated   Kind = "images_evaluated"
	CopyTranslated    Kind = "copy_translated"
	RemoteEditApplied Kind = "remote_edit_applied"
	ArchiveExported   Kind = "archive_exported"
)

// Props are event properties. Only numbers, booleans and strings up to 64
// bytes survive; the envelope fields cannot be overridden.
type Props map[string]any

const (
	maxPropString = 64
	queueSize     = 64
)

// Emitter is what the rest of the module depends on.
type Emitter interface {
	Emit(kind Kind, props Props)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(Kind, Props) {}

// envelope is the wire form of one event.
type envelope struct {
	Name    string
	TS      time.Time
	Version string
	OS      string
	Arch    string
	Props   Props
}

func (e envelope) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Props)+5)
	for k, v := range e.Props {
		if admissible(v) {
			m[k] = v
		}
	}
	maps.Copy(m, map[string]any{
		"name":    e.Name,
		"ts":      e.TS.UTC().Format(time.RFC3339Nano),
		"version": e.Version,
		"os":      e.OS,
		"arch":    e.Arch,
	})
	return json.Marshal(m)
}

func admissible(v any) bool {
	switch x := v.(type) {
	case bool, int, int64, float64:
		return true
	case string:
		return len(x) <= maxPropString
	}
	return false
}

// Client queues events and posts them one by one from a background
// goroutine. Emit never blocks; a full queue drops the event.
type Client struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client

	q      chan envelope
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	pending int
	idle    chan struct{} // closed while pending == 0
	dropped int
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client, creating it from the environment
// on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the process-wide client and closes the previous one.
func SetDefault(c *Client) {
	defaultMu.Lock()
	prev := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if prev != nil && prev != c {
		prev.Close()
	}
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		http:   &http.Client{Timeout: cfg.Timeout},
		q:      make(chan envelope, queueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		idle:   idle,
	}
	go c.run()
	return c
}

// Enabled reports whether events are sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Dropped counts events lost to a full queue.
func (c *Client) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Emit queues an event if enabled.
func (c *Client) Emit(kind Kind, props Props) {
	if !c.Enabled() || kind == "" {
		return
	}
	ev := envelope{Name: string(kind), TS: time.Now(), Version: version.String(), OS: runtime.GOOS, Arch: runtime.GOARCH, Props: maps.Clone(props)}

	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case c.q <- ev:
		if c.pending == 0 {
			c.idle = make(chan struct{})
		}
		c.pending++
	default:
		c.dropped++
		c.debug("telemetry queue full, event dropped", slog.String("event", ev.Name))
	}
}

func (c *Client) sent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending--; c.pending == 0 {
		close(c.idle)
	}
}

// Flush waits until queued events were sent, the client closed or ctx ended.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
	case <-c.done:
	case <-ctx.Done():
	}
}

// Close stops the sender, aborting an in-flight request. Queued events are
// discarded.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.cancel()
	<-c.done
}

func (c *Client) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.q:
			if err := c.post(ev); err != nil {
				c.debug("telemetry send failed", slog.String("event", ev.Name), slog.Any("err", err))
			} else {
				c.debug("telemetry event sent", slog.String("event", ev.Name))
			}
			c.sent()
		}
	}
}

func (c *Client) post(ev envelope) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.do(c.ctx, c.cfg.EventsURL, "application/json", body)
}

func (c *Client) do(ctx context.Context, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint: %s", resp.Status)
	}
	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.cfg.DebugLogging {
		c.log.Debug(msg, args...)
	}
}

// UploadCrash posts a crash report synchronously. It is a no-op without
// opt-in or a crash URL.
func (c *Client) UploadCrash(ctx context.Context, report []byte) error {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return nil
	}
	err := c.do(ctx, c.cfg.CrashURL, "text/plain; charset=utf-8", report)
	if err != nil {
		c.debug("crash upload failed", slog.Any("err", err))
	}
	return err
}
