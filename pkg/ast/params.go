// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ast

// 🗺️ Params holds a directive's parenthesized key=value parameters. Values
// are restricted by the grammar to bool, int, or string. Keys are
// case-sensitive.
type Params map[string]any

// Bool returns the boolean parameter for key, or def when the key is absent
// or holds a non-boolean value.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Int returns the integer parameter for key, or def when the key is absent
// or holds a non-integer value.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key].(int); ok {
		return v
	}
	return def
}

// String returns the string parameter for key, or def when the key is
// absent or holds a non-string value.
func (p Params) String(key string, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}
