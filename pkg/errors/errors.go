// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeProviderKeyInvalid        Code = "provider.key.invalid"
	CodeProviderURLInvalid        Code = "provider.url.invalid"
	CodeProviderInputInvalid      Code = "provider.input.invalid"
	CodeProviderNetworkFailure    Code = "provider.network.failure"
	CodeProviderDecodingFailure   Code = "provider.response.decoding_failure"
	CodeProviderTimeout           Code = "provider.request.timeout"
	CodeProviderServerFailure     Code = "provider.server.failure"
	CodeProviderConnectionRefused Code = "provider.connection.refused"
	CodeProviderUnavailable       Code = "provider.upstream.unavailable"
	CodeProviderUnknown           Code = "provider.registry.not_found"

	CodeStoreItemNotFound     Code = "store.item.get.not_found"
	CodeStoreTagNotFound      Code = "store.tag.get.not_found"
	CodeStoreTagConflict      Code = "store.tag.rename.conflict"
	CodeStoreDatabaseFailure  Code = "store.database.failure"
	CodeStoreEmbeddingFailure Code = "store.embedding.save.failure"
	CodeStoreInvalidInput     Code = "store.invalid_input"

	CodeSearchSemanticFailure Code = "search.semantic.failure"

	CodeBackfillActive          Code = "backfill.job.active.conflict"
	CodeBackfillNotFound        Code = "backfill.job.not_found"
	CodeBackfillSnapshotFailure Code = "backfill.snapshot.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"

	CodeCLIInputInvalid  Code = "cli.input.invalid"
	CodeCLISetupFailure  Code = "cli.setup.failure"
	CodeClipboardFailure Code = "clipboard.access.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldItemID(value int64) Attr {
	return Field("item_id", value)
}

func FieldTag(value string) Attr {
	return Field("tag", value)
}

func FieldStatus(value int) Attr {
	return Field("status", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsInvalidAPIKey(err error) bool {
	return HasCode(err, CodeProviderKeyInvalid)
}

func IsInvalidURL(err error) bool {
	return HasCode(err, CodeProviderURLInvalid)
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value"
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func IsConnectionRefused(err error) bool {
	return HasCode(err, CodeProviderConnectionRefused)
}

func IsServiceUnavailable(err error) bool {
	return HasCode(err, CodeProviderUnavailable)
}

func IsNetworkError(err error) bool {
	return HasCode(err, CodeProviderNetworkFailure)
}

func IsDecodingError(err error) bool {
	return reason(CodeOf(err)) == "decoding_failure"
}

func IsServerError(err error) bool {
	return HasCode(err, CodeProviderServerFailure)
}

// ServerStatus returns the upstream HTTP status attached to a
// provider.server.failure error, or 0 when absent.
func ServerStatus(err error) int {
	if !IsServerError(err) {
		return 0
	}
	if v, ok := FieldsOf(err)["status"].(int); ok {
		return v
	}
	return 0
}

// ProviderOf returns the provider name attached to an error, or "".
func ProviderOf(err error) string {
	if v, ok := FieldsOf(err)["provider"].(string); ok {
		return v
	}
	return ""
}

// HTTPStatus maps an error to the status code the local API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsInvalidInput(err) || IsInvalidURL(err):
		return http.StatusBadRequest
	case IsInvalidAPIKey(err):
		return http.StatusUnauthorized
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	case IsServiceUnavailable(err) || IsConnectionRefused(err):
		return http.StatusServiceUnavailable
	case IsServerError(err) || IsNetworkError(err) || IsDecodingError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
