// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"

	"powerdata/cli/internal/app"
	"powerdata/cli/internal/bridge"
	"powerdata/cli/internal/bridge/grpcclient"
	"powerdata/cli/internal/keychain"
	"powerdata/cli/internal/logging"
	"powerdata/cli/internal/manifest"
)

var errNoHost = errors.New("no app host configured; run 'powerdata connect' or pass --host")

// session is one initialized app over the configured host.
type session struct {
	app      *app.App
	manifest *manifest.Manifest
	close    func() error
}

type sessionOptions struct {
	// withManifest loads the data-sources manifest before connecting.
	withManifest bool
	// token overrides the keychain token.
	token   string
	metrics app.MetricLogger
}

// openSession connects to the host and initializes the app.
func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	s := &session{close: func() error { return nil }}
	if opts.withManifest {
		m, err := manifest.Get(ctx, cfg.App.DataSources)
		if err != nil {
			return nil, err
		}
		s.manifest = m
	}

	t, closeTransport, err := newTransport(opts.token)
	if err != nil {
		return nil, err
	}
	s.app = app.New(t, logger)
	s.close = func() error {
		_ = s.app.Close()
		return closeTransport()
	}

	if err := s.app.Initialize(ctx, app.Options{Logger: opts.metrics}); err != nil {
		_ = s.close()
		if errors.Is(err, bridge.ErrMobileUnsupported) {
			return nil, err
		}
		logging.PresentStreamError(err)
		return nil, err
	}
	logger.Debug("app session ready", "host", cfg.Host.Address)
	return s, nil
}

// client returns the data client bound to the session's manifest.
func (s *session) client() *app.Client {
	return s.app.Client(s.manifest.DataSources)
}

// newTransport builds the host transport from config. The session token comes
// from the keychain unless given; plaintext local hosts may run without one.
func newTransport(token string) (bridge.Transport, func() error, error) {
	if cfg.Host.Mobile {
		return bridge.NewMobileBridge(logger), func() error { return nil }, nil
	}
	addr, insecure := cfg.Host.Target()
	if addr == "" {
		return nil, nil, errNoHost
	}
	if token == "" {
		stored, err := storedToken(cfg.Host.Address)
		if err != nil && !insecure {
			return nil, nil, err
		}
		token = stored
	}
	port := grpcclient.New(grpcclient.Options{Addr: addr, Token: token, Insecure: insecure})
	b := bridge.NewPluginBridge(port, logger)
	return b, b.Close, nil
}

func storedToken(host string) (string, error) {
	store, err := keychain.Default()
	if err != nil {
		return "", err
	}
	token, err := store.Token(host)
	if errors.Is(err, keychain.ErrNotFound) {
		return "", fmt.Errorf("no session token stored for %s; run 'powerdata connect'", host)
	}
	return token, err
}
