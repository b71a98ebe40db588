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

package engine

import "github.com/pterm/pterm"

// ❓ Prompter asks the user to confirm a destructive step in interactive
// mode. Tests inject a canned implementation.
type Prompter interface {
	Confirm(message string) bool
}

// 🖥️ TerminalPrompter confirms through an interactive terminal prompt.
type TerminalPrompter struct{}

// Confirm implements Prompter. A read error counts as a decline.
func (TerminalPrompter) Confirm(message string) bool {
	ok, err := pterm.DefaultInteractiveConfirm.Show(message)
	if err != nil {
		return false
	}
	return ok
}
