// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "paauth header",
			input:    "Authorization: paauth eyJhbGciOi.J9.abc",
			expected: "Authorization: paauth ***",
		},
		{
			name:     "dynamicauth header",
			input:    "dynamicauth abc/def+ghi=",
			expected: "dynamicauth ***",
		},
		{
			name:     "bearer token",
			input:    "Bearer abc123xyz and more",
			expected: "Bearer *** and more",
		},
		{
			name:     "anti CSRF token in JSON",
			input:    `{"isPluginCall":true,"antiCSRFToken":"t0k3n","service":"x"}`,
			expected: `{"isPluginCall":true,"antiCSRFToken":"***","service":"x"}`,
		},
		{
			name:     "token query pair",
			input:    "https://host/items?token=abc123&top=5",
			expected: "https://host/items?token=***&top=5",
		},
		{
			name:     "api key",
			input:    "apikey=sk_test_123456",
			expected: "apikey=***",
		},
		{
			name:     "nothing to mask",
			input:    "Retrieve record operation failed: 404",
			expected: "Retrieve record operation failed: 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Mask(tt.input))
		})
	}
}
