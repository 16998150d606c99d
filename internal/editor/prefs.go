/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"campaignwizard/internal/crop"
)

const (
	KeyLastTool   = "imageEditor_lastTool"
	KeyLastAspect = "imageEditor_lastAspectRatio"
)

// PrefStore is the key/value persistence the editor remembers choices in.
// *prefs.Store satisfies it.
type PrefStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// aspectPref is the stored form of an aspect choice. Value is null for free.
type aspectPref struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

func encodeAspect(a crop.Aspect) (string, error) {
	p := aspectPref{Name: a.Name}
	if !a.Free() {
		r := a.Ratio
		p.Value = &r
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAspect(s string) (crop.Aspect, error) {
	var p aspectPref
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return crop.Aspect{}, fmt.Errorf("decode aspect pref: %w", err)
	}
	if p.Value == nil || *p.Value <= 0 {
		return crop.AspectFree, nil
	}
	return crop.Aspect{Name: p.Name, Ratio: *p.Value}, nil
}

// loadPrefs reads the last tool and aspect. Missing or corrupt values fall
// back to crop/free.
func loadPrefs(ctx context.Context, ps PrefStore) (Tool, crop.Aspect) {
	tool, aspect := ToolCrop, crop.AspectFree
	if ps == nil {
		return tool, aspect
	}
	l := logger(ctx)
	if v, ok, err := ps.Get(ctx, KeyLastTool); err != nil {
		l.Warn("read last tool failed", "err", err)
	} else if ok {
		if t, err := ParseTool(v); err == nil {
			tool = t
		}
	}
	if v, ok, err := ps.Get(ctx, KeyLastAspect); err != nil {
		l.Warn("read last aspect failed", "err", err)
	} else if ok {
		if a, err := decodeAspect(v); err == nil {
			aspect = a
		} else {
			l.Warn("ignoring stored aspect", "err", err)
		}
	}
	return tool, aspect
}
