/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"campaignwizard/internal/domain"
)

var stripPolicy = bluemonday.StrictPolicy()

// plain removes any markup the model put into copy text. Entities produced
// by the sanitizer are turned back into characters for the .txt output.
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

func copyBlock(variation int, c domain.CopyText) string {
	return fmt.Sprintf("=== VARIATION %d ===\n\nHeadline: %s\n\nBody:\n%s\n\nCall to Action: %s\n\n",
		variation, plain(c.Headline), plain(c.BodyText), plain(c.CallToAction))
}

// FormatCopies renders all copy variations as plain text.
func FormatCopies(copies []domain.GeneratedCopy) string {
	blocks := make([]string, 0, len(copies))
	for _, c := range copies {
		blocks = append(blocks, copyBlock(c.Variation, c.CopyText))
	}
	return strings.Join(blocks, "\n---\n\n")
}

// FormatTranslations renders the translations into one language.
func FormatTranslations(ts []domain.Translation, language string) string {
	var blocks []string
	for _, t := range ts {
		if t.Language == language {
			blocks = append(blocks, copyBlock(t.Variation, t.Copy))
		}
	}
	return strings.Join(blocks, "\n---\n\n")
}
