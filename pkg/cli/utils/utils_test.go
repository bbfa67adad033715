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

package utils

import (
	"testing"

	"github.com/dnote/etenotes/pkg/assert"
)

func TestCleanFilename(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{
			input:    "groceries",
			expected: "groceries",
		},
		{
			input:    `a\b/c:d*e?f"g<h>i|j`,
			expected: "abcdefghij",
		},
		{
			input:    "2024/05/01 meeting: notes?",
			expected: "20240501 meeting notes",
		},
		{
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, CleanFilename(tc.input), tc.expected, "result mismatch")
		})
	}
}

func TestIsNumber(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{input: "1", expected: true},
		{input: "42", expected: true},
		{input: "", expected: false},
		{input: "4a", expected: false},
		{input: "-1", expected: false},
	}

	for _, tc := range testCases {
		assert.Equal(t, IsNumber(tc.input), tc.expected, tc.input)
	}
}

func TestShortUID(t *testing.T) {
	assert.Equal(t, ShortUID("3f1c2a7e-0000-4000-8000-000000000000"), "3f1c2a7e", "long uid")
	assert.Equal(t, ShortUID("abc"), "abc", "short uid")
}
