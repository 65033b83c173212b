// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import "errors"

func nativeSecrets() (Secrets, error) {
	return nil, errors.New("no native credential command on this platform")
}
