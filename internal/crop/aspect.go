/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crop

import (
	"fmt"
	"strings"
)

// Aspect is a named aspect constraint. Ratio is width/height; zero means free.
type Aspect struct {
	Name  string
	Ratio float64
}

// Free reports whether the aspect leaves the selection unconstrained.
func (a Aspect) Free() bool { return a.Ratio <= 0 }

func (a Aspect) String() string {
	if a.Free() {
		return "free"
	}
	return fmt.Sprintf("%s (%.4g)", a.Name, a.Ratio)
}

var (
	AspectFree = Aspect{Name: "Free"}
)

// Presets lists the aspect constraints offered by the editor, in display order.
var Presets = []Aspect{
	AspectFree,
	{Name: "1:1", Ratio: 1},
	{Name: "4:3", Ratio: 4.0 / 3.0},
	{Name: "3:2", Ratio: 3.0 / 2.0},
	{Name: "16:9", Ratio: 16.0 / 9.0},
	{Name: "21:9", Ratio: 21.0 / 9.0},
	{Name: "9:16", Ratio: 9.0 / 16.0},
	{Name: "4:5", Ratio: 4.0 / 5.0},
	{Name: "2:3", Ratio: 2.0 / 3.0},
}

// LookupAspect finds a preset by name (case-insensitive). "free" and the empty
// string resolve to AspectFree.
func LookupAspect(name string) (Aspect, bool) {
	n := strings.TrimSpace(name)
	if n == "" || strings.EqualFold(n, "free") {
		return AspectFree, true
	}
	for _, p := range Presets {
		if strings.EqualFold(p.Name, n) {
			return p, true
		}
	}
	return Aspect{}, false
}
