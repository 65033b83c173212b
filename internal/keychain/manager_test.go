// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Token(t *testing.T) {
	s := FromRing(keyring.NewArrayKeyring(nil))

	_, err := s.Token("localhost:50051")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.SaveToken("localhost:50051", ""))
	assert.Error(t, s.SaveToken(" ", "tok"))
	require.NoError(t, s.SaveToken("grpc://localhost:50051/", "paauth abc"))

	got, err := s.Token("localhost:50051")
	require.NoError(t, err)
	assert.Equal(t, "paauth abc", got)

	_, err = s.Token("other:1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.ForgetToken("LOCALHOST:50051"))
	require.NoError(t, s.ForgetToken("localhost:50051"))
	_, err = s.Token("localhost:50051")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenKey(t *testing.T) {
	tests := map[string]string{
		"grpcs://Host.example.com/": "host:host.example.com",
		" grpc://127.0.0.1:7000":    "host:127.0.0.1:7000",
		"host.example.com:443":      "host:host.example.com:443",
	}
	for in, want := range tests {
		assert.Equal(t, want, tokenKey(in), in)
	}
}
