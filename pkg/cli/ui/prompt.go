/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ui

import (
	"fmt"
	"io"
	"strings"
)

// FormatQuestion formats a yes/no question with the appropriate choice indicator
func FormatQuestion(question string, optimistic bool) string {
	choices := "(y/N)"
	if optimistic {
		choices = "(Y/n)"
	}

	return fmt.Sprintf("%s %s", question, choices)
}

// ReadYesNo reads a yes/no answer. In optimistic mode, an empty answer is a yes.
func ReadYesNo(r io.Reader, optimistic bool) (bool, error) {
	input, err := readLine(r)
	if err != nil {
		return false, err
	}

	input = strings.ToLower(strings.TrimSpace(input))
	switch input {
	case "y", "yes":
		return true, nil
	case "":
		return optimistic, nil
	}

	return false, nil
}
