// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build darwin

package keychain

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// securityCLI stores generic passwords through /usr/bin/security.
type securityCLI struct{ path string }

func nativeSecrets() (Secrets, error) {
	p, err := exec.LookPath("security")
	if err != nil {
		return nil, fmt.Errorf("security command not found: %w", err)
	}
	return securityCLI{path: p}, nil
}

func (s securityCLI) Set(key, value string) error {
	if _, msg, err := s.exec("add-generic-password", "-a", ServiceName, "-s", key, "-w", value, "-U"); err != nil {
		return fmt.Errorf("keychain add %s: %s: %w", key, msg, err)
	}
	return nil
}

func (s securityCLI) Get(key string) (string, error) {
	out, msg, err := s.exec("find-generic-password", "-a", ServiceName, "-s", key, "-w")
	switch {
	case err == nil:
		return strings.TrimSpace(out), nil
	case missing(msg):
		return "", ErrNotFound
	}
	return "", fmt.Errorf("keychain find %s: %s: %w", key, msg, err)
}

func (s securityCLI) Delete(key string) error {
	if _, msg, err := s.exec("delete-generic-password", "-a", ServiceName, "-s", key); err != nil && !missing(msg) {
		return fmt.Errorf("keychain delete %s: %s: %w", key, msg, err)
	}
	return nil
}

func (s securityCLI) exec(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	c := exec.Command(s.path, args...)
	c.Stdout, c.Stderr = &out, &errOut
	err := c.Run()
	return out.String(), strings.TrimSpace(errOut.String()), err
}

func missing(stderr string) bool {
	return strings.Contains(stderr, "could not be found")
}
