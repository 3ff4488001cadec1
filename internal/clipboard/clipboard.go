// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package clipboard wraps the system clipboard capability consumed by the
// capture loop. The engine never talks to OS APIs directly.
package clipboard

import (
	"github.com/atotto/clipboard"

	"github.com/clipd-dev/clipd/internal/store"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

// Clipboard is the capability the capture loop polls and the copy action
// writes back through.
type Clipboard interface {
	ReadText() (string, error)
	ReadImage() ([]byte, error)
	WriteText(text string) error

	// ForegroundApp identifies the application that currently owns the
	// screen, or store.SourceUnknown when unavailable.
	ForegroundApp() string
}

// Compile-time interface check.
var _ Clipboard = (*System)(nil)

// System is the default Clipboard backed by the OS clipboard. Only text is
// supported; image reads report no payload.
type System struct{}

func (System) ReadText() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", clipderr.Wrap(err, clipderr.CodeClipboardFailure, "reading clipboard text")
	}
	return text, nil
}

func (System) ReadImage() ([]byte, error) {
	// The portable clipboard capability carries text only.
	return nil, nil
}

func (System) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return clipderr.Wrap(err, clipderr.CodeClipboardFailure, "writing clipboard text")
	}
	return nil
}

func (System) ForegroundApp() string { return store.SourceUnknown }
