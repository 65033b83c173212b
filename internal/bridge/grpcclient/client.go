// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcclient provides a gRPC-backed host message Port.
// Plugin messages are carried as google.protobuf.Struct values over a single
// bidirectional stream, so no generated stubs are needed on either side.
//
// The package manages connection lifecycle and protocol conversion between
// plugin message maps and protobuf structs.
package grpcclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// ChannelMethod is the full method name of the host channel stream.
const ChannelMethod = "/powerapps.host.HostBridge/Channel"

// Options configure a Client.
type Options struct {
	// Addr is host[:port]; port 443 is assumed when missing.
	Addr string
	// Token is sent as a bearer authorization header when non-empty.
	Token string
	// Insecure disables TLS, for hosts on localhost.
	Insecure bool
	// DialTimeout bounds connection establishment. Zero means 10s.
	DialTimeout time.Duration
}

// Client implements bridge.Port over the HostBridge.Channel bidi stream.
type Client struct {
	opts Options

	conn   *grpc.ClientConn
	stream *grpc.GenericClientStream[structpb.Struct, structpb.Struct]
	cancel context.CancelFunc

	sendMu sync.Mutex
}

// New returns an unopened Client.
func New(opts Options) *Client {
	return &Client{opts: opts}
}

// Open dials the host and opens the channel stream. The stream outlives ctx;
// it ends on Close.
func (c *Client) Open(ctx context.Context) error {
	// Derive SNI and ensure default port if missing
	host := c.opts.Addr
	if h, _, err := net.SplitHostPort(c.opts.Addr); err == nil {
		host = h
	}
	target := c.opts.Addr
	if _, _, err := net.SplitHostPort(c.opts.Addr); err != nil {
		target = net.JoinHostPort(c.opts.Addr, "443")
	}

	creds := insecure.NewCredentials()
	if !c.opts.Insecure {
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	}
	timeout := c.opts.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	c.conn, err = grpc.DialContext(dctx, target, grpc.WithTransportCredentials(creds), grpc.WithBlock())
	if err != nil {
		return err
	}

	sctx, scancel := context.WithCancel(context.Background())
	if c.opts.Token != "" {
		sctx = metadata.NewOutgoingContext(sctx, metadata.Pairs("authorization", "Bearer "+c.opts.Token))
	}
	cs, err := c.conn.NewStream(sctx, &grpc.StreamDesc{ServerStreams: true, ClientStreams: true}, ChannelMethod)
	if err != nil {
		scancel()
		_ = c.conn.Close()
		return err
	}
	c.stream = &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: cs}
	c.cancel = scancel
	return nil
}

// Post sends one message on the stream.
func (c *Client) Post(ctx context.Context, msg map[string]any) error {
	if c.stream == nil {
		return errors.New("stream not initialized")
	}
	s, err := ToStruct(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.stream.Send(s)
}

// Recv receives one message. gRPC status errors are returned unwrapped so
// callers can present them with status.FromError.
func (c *Client) Recv() (map[string]any, error) {
	if c.stream == nil {
		return nil, errors.New("stream not initialized")
	}
	s, err := c.stream.Recv()
	if err != nil {
		return nil, err
	}
	return FromStruct(s), nil
}

// Close ends the stream and the connection.
func (c *Client) Close() error {
	if c.stream != nil {
		_ = c.stream.CloseSend()
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
