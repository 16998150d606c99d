/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"campaignwizard/internal/editor"
)

type filterRequest struct {
	ImageBase64  string `json:"image_base64"`
	MimeType     string `json:"mime_type"`
	FilterPrompt string `json:"filter_prompt"`
}

type filterResponse struct {
	ImageBase64 string `json:"filtered_image_base64"`
	MimeType    string `json:"mime_type"`
	Applied     string `json:"filter_applied"`
}

type adjustRequest struct {
	ImageBase64      string `json:"image_base64"`
	MimeType         string `json:"mime_type"`
	AdjustmentPrompt string `json:"adjustment_prompt"`
}

type adjustResponse struct {
	ImageBase64 string `json:"adjusted_image_base64"`
	MimeType    string `json:"mime_type"`
	Applied     string `json:"adjustment_applied"`
}

// ApplyFilter sends an image for a stylistic filter and returns the result bytes.
func (c *Client) ApplyFilter(ctx context.Context, image []byte, mime, prompt string) ([]byte, string, error) {
	var resp filterResponse
	req := filterRequest{ImageBase64: base64.StdEncoding.EncodeToString(image), MimeType: mime, FilterPrompt: prompt}
	if err := c.doJSON(ctx, "apply filter", http.MethodPost, "/api/image/filter", req, &resp); err != nil {
		return nil, "", err
	}
	return decodeImage("apply filter", resp.ImageBase64, resp.MimeType)
}

// ApplyAdjustment sends an image for a photographic adjustment.
func (c *Client) ApplyAdjustment(ctx context.Context, image []byte, mime, prompt string) ([]byte, string, error) {
	var resp adjustResponse
	req := adjustRequest{ImageBase64: base64.StdEncoding.EncodeToString(image), MimeType: mime, AdjustmentPrompt: prompt}
	if err := c.doJSON(ctx, "apply adjustment", http.MethodPost, "/api/image/adjust", req, &resp); err != nil {
		return nil, "", err
	}
	return decodeImage("apply adjustment", resp.ImageBase64, resp.MimeType)
}

// EditImage routes an editor request to the filter or adjust endpoint.
func (c *Client) EditImage(ctx context.Context, kind editor.EditKind, image []byte, mime, prompt string) ([]byte, string, error) {
	switch kind {
	case editor.KindFilter:
		return c.ApplyFilter(ctx, image, mime, prompt)
	case editor.KindAdjustment:
		return c.ApplyAdjustment(ctx, image, mime, prompt)
	}
	return nil, "", fmt.Errorf("unsupported edit kind %q", kind)
}

var _ editor.RemoteEditor = (*Client)(nil)

func decodeImage(op, b64, mime string) ([]byte, string, error) {
	if b64 == "" {
		return nil, "", &RemoteCallFailed{Op: op, Status: http.StatusOK, Detail: fmt.Sprintf("Failed to %s: response has no image", op)}
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, "", &RemoteCallFailed{Op: op, Status: http.StatusOK, Detail: fmt.Sprintf("Failed to %s: invalid image encoding", op), Err: err}
	}
	return data, mime, nil
}
