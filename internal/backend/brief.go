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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"campaignwizard/internal/domain"
)

//go:embed schema/brief.schema.json
var briefSchemaJSON []byte

var (
	briefSchemaOnce sync.Once
	briefSchema     *gojsonschema.Schema
	briefSchemaErr  error
)

func compiledBriefSchema() (*gojsonschema.Schema, error) {
	briefSchemaOnce.Do(func() {
		briefSchema, briefSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(briefSchemaJSON))
	})
	return briefSchema, briefSchemaErr
}

// ValidateBriefJSON checks a brief analysis payload against the embedded schema.
func ValidateBriefJSON(raw []byte) error {
	schema, err := compiledBriefSchema()
	if err != nil {
		return fmt.Errorf("load brief schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate brief: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.New("brief does not match schema: " + strings.Join(msgs, "; "))
	}
	return nil
}

// BriefInput is either an uploaded document or pasted text.
type BriefInput struct {
	FileName string
	FileMime string
	File     []byte
	Text     string
}

// AnalyzeBrief extracts a structured brief from a document or text. The
// response is schema-checked before it is decoded.
func (c *Client) AnalyzeBrief(ctx context.Context, in BriefInput) (*domain.BriefRecord, error) {
	const op = "analyze brief"
	parts := []formPart{{Name: "text", Value: in.Text}}
	if len(in.File) > 0 {
		parts = append([]formPart{{Name: "file", FileName: in.FileName, Mime: in.FileMime, Data: in.File}}, parts...)
	}
	var raw json.RawMessage
	if err := c.doMultipart(ctx, op, "/api/analyze-brief", parts, &raw); err != nil {
		return nil, err
	}
	if err := ValidateBriefJSON(raw); err != nil {
		return nil, &RemoteCallFailed{Op: op, Status: http.StatusOK, Detail: "Failed to analyze brief: " + err.Error(), Err: err}
	}
	var rec domain.BriefRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &RemoteCallFailed{Op: op, Status: http.StatusOK, Detail: "Failed to analyze brief: malformed response", Err: err}
	}
	return &rec, nil
}

// GenerateCreative derives image, copy and video prompts from a brief.
func (c *Client) GenerateCreative(ctx context.Context, brief *domain.BriefRecord) (domain.CreativePrompts, error) {
	var out domain.CreativePrompts
	if brief == nil {
		return out, errors.New("generate creative: brief is required")
	}
	req := struct {
		BriefData *domain.BriefRecord `json:"brief_data"`
	}{brief}
	err := c.doJSON(ctx, "generate creative prompts", http.MethodPost, "/api/generate-creative", req, &out)
	return out, err
}
