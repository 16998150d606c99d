/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend is the HTTP/JSON client for the AI services behind the
// wizard: brief analysis, prompt and asset generation, evaluation,
// translation and image edits.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "campaignwizard/internal/log"
)

// DefaultTimeout covers asset generation, which can take minutes.
const DefaultTimeout = 120 * time.Second

// RemoteCallFailed is returned for any non-2xx answer or transport failure.
// Detail is the backend's "detail" message when it sent one, otherwise a
// generic statement naming the operation.
type RemoteCallFailed struct {
	Op     string
	Status int // 0 for transport errors
	Detail string
	Err    error
}

func (e *RemoteCallFailed) Error() string {
	if e.Status == 0 {
		return e.Detail
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Detail, e.Status)
}

func (e *RemoteCallFailed) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	Timeout     time.Duration
	TLSInsecure bool
	HTTPClient  *http.Client
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	BaseURL string
	Token   string // bearer token, optional
	client  *http.Client
	log     *slog.Logger
}

// NewClient creates a backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL, token string, opts Options) *Client {
	b := strings.TrimRight(baseURL, "/")
	hc := opts.HTTPClient
	if hc == nil {
		if opts.Timeout <= 0 {
			opts.Timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: opts.Timeout}
		if opts.TLSInsecure {
			tr := http.DefaultTransport.(*http.Transport).Clone()
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local dev backends
			hc.Transport = tr
		}
	}
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  hc,
		log:     applog.WithComponent("backend"),
	}
}

// doJSON sends body (if non-nil) as JSON and decodes the answer into dest.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, dest any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	return c.do(ctx, op, method, path, "application/json", rd, dest)
}

// formPart is one multipart field. File parts carry a file name and bytes.
type formPart struct {
	Name     string
	Value    string
	FileName string
	Mime     string
	Data     []byte
}

func (c *Client) doMultipart(ctx context.Context, op, path string, parts []formPart, dest any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.FileName == "" {
			if err := mw.WriteField(p.Name, p.Value); err != nil {
				return fmt.Errorf("%s: write field %s: %w", op, p.Name, err)
			}
			continue
		}
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, p.Name, p.FileName)}
		ct := p.Mime
		if ct == "" {
			ct = "application/octet-stream"
		}
		h["Content-Type"] = []string{ct}
		w, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("%s: create part %s: %w", op, p.Name, err)
		}
		if _, err := w.Write(p.Data); err != nil {
			return fmt.Errorf("%s: write part %s: %w", op, p.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s: close form: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, path, mw.FormDataContentType(), &buf, dest)
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, dest any) error {
	l := applog.WithOperation(c.log, op)
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		l.Warn("request failed", slog.String("path", u.Path), slog.Any("err", err))
		return &RemoteCallFailed{Op: op, Detail: fmt.Sprintf("Failed to %s: %v", op, err), Err: err}
	}
	defer resp.Body.Close()
	l.Debug("response", slog.String("path", u.Path), slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		detail := detailFrom(raw)
		if detail == "" {
			detail = fmt.Sprintf("Failed to %s: %s", op, http.StatusText(resp.StatusCode))
		}
		return &RemoteCallFailed{Op: op, Status: resp.StatusCode, Detail: detail}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &RemoteCallFailed{Op: op, Status: resp.StatusCode, Detail: fmt.Sprintf("Failed to %s: malformed response", op), Err: err}
	}
	return nil
}

// detailFrom extracts the "detail" member of an error body. Validation errors
// carry a list of {msg} objects instead of a string.
func detailFrom(raw []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &env) != nil || len(env.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(env.Detail, &s) == nil {
		return strings.TrimSpace(s)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(env.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
