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
	"strings"

	"campaignwizard/internal/store"
)

// BrandName is the file-safe brand from the brief, or def when there is none.
func BrandName(st store.State, def string) string {
	if st.Brief.Data == nil {
		return def
	}
	if b := fileSafe(st.Brief.Data.BrandName.Value); b != "" {
		return b
	}
	return def
}

func ArchiveName(brand string) string { return brand + "_all_assets.zip" }

// SingleImageName names a one-off image download.
func SingleImageName(st store.State, variation int) string {
	return fmt.Sprintf("%s_variation_%d.png", BrandName(st, "image"), variation)
}

// SingleVideoName names a one-off video download.
func SingleVideoName(st store.State) string {
	return BrandName(st, "video") + "_ad_creative.mp4"
}

// fileSafe drops path separators and control characters so a brand can be
// used inside a zip entry name.
func fileSafe(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}
