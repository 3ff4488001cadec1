// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package provider defines the embedding provider contract shared by the
// local HTTP service and the cloud backends.
package provider

import (
	"context"
	"errors"
	"net"
	"syscall"

	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

// Embedder turns text into a fixed-length float vector.
type Embedder interface {
	Name() string

	// Generate embeds non-empty text. Failures carry one of the provider
	// error codes from pkg/errors.
	Generate(ctx context.Context, text string) ([]float32, error)
}

// Factory resolves the active embedder from the current settings at call
// time, so a provider switch applies on the next call and never re-embeds
// existing records.
type Factory func() (Embedder, error)

// Reachability reports whether the network is usable. Every provider call
// checks it first and fails fast with a network error when it returns false.
type Reachability func() bool

// Online is the default Reachability: true when any non-loopback interface
// is up with an assigned address.
func Online() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}

// CheckInput validates the embedding input shared by all providers.
func CheckInput(text string, reachable Reachability, name string) error {
	if text == "" {
		return clipderr.New(clipderr.CodeProviderInputInvalid, "embedding input is empty",
			clipderr.FieldProvider(name))
	}
	if reachable != nil && !reachable() {
		return clipderr.New(clipderr.CodeProviderNetworkFailure, "network unreachable",
			clipderr.FieldProvider(name))
	}
	return nil
}

// ClassifyTransport maps a transport-level failure onto the shared taxonomy.
// Connection failures become ConnectionRefused for the local service and
// ServiceUnavailable for cloud providers.
func ClassifyTransport(err error, name string, localService bool) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return clipderr.Wrap(err, clipderr.CodeProviderTimeout, name+": request timed out",
			clipderr.FieldProvider(name))
	case errors.As(err, &netErr) && netErr.Timeout():
		return clipderr.Wrap(err, clipderr.CodeProviderTimeout, name+": request timed out",
			clipderr.FieldProvider(name))
	case errors.Is(err, syscall.ECONNREFUSED):
		if localService {
			return clipderr.Wrap(err, clipderr.CodeProviderConnectionRefused, name+": connection refused",
				clipderr.FieldProvider(name))
		}
		return clipderr.Wrap(err, clipderr.CodeProviderUnavailable, name+": service unavailable",
			clipderr.FieldProvider(name))
	default:
		return clipderr.Wrap(err, clipderr.CodeProviderNetworkFailure, name+": network failure",
			clipderr.FieldProvider(name))
	}
}
