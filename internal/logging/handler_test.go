// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "Failed to parse JSON: %s", buf.String())
	return entry
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("accounts", "1.0.0", "json", &buf)

	logger.Info("test message")

	entry := decode(t, &buf)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "accounts", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Contains(t, entry, "time", "time field missing")
	assert.Contains(t, entry, "level", "level field missing")
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("accounts", "1.0.0", "text", &buf)

	logger.Info("test message")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "service=accounts")
}

func TestSetup_DefaultFormat(t *testing.T) {
	var buf bytes.Buffer
	Setup("accounts", "1.0.0", "", &buf).Info("test message")
	decode(t, &buf)
}

func TestHandler_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("accounts", "1.0.0", "json", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "traced message")

	entry := decode(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_NoTraceContext(t *testing.T) {
	var buf bytes.Buffer
	Setup("accounts", "1.0.0", "json", &buf).Info("no trace message")

	entry := decode(t, &buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestHandler_RedactsCredentials(t *testing.T) {
	tests := []struct {
		name string
		log  func(l *slog.Logger)
		key  string
	}{
		{"password", func(l *slog.Logger) { l.Info("m", "password", "hunter2") }, "password"},
		{"new password", func(l *slog.Logger) { l.Info("m", "new_password", "hunter2") }, "new_password"},
		{"old password", func(l *slog.Logger) { l.Info("m", "old_password", "hunter2") }, "old_password"},
		{"token", func(l *slog.Logger) { l.Info("m", "token", "abc") }, "token"},
		{"access token", func(l *slog.Logger) { l.Info("m", "access_token", "abc") }, "access_token"},
		{"refresh token", func(l *slog.Logger) { l.Info("m", "refresh_token", "abc") }, "refresh_token"},
		{"mixed case", func(l *slog.Logger) { l.Info("m", "Password", "hunter2") }, "Password"},
		{"attached with With", func(l *slog.Logger) { l.With("token", "abc").Info("m") }, "token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(Setup("accounts", "1.0.0", "json", &buf))

			entry := decode(t, &buf)
			assert.Equal(t, Redacted, entry[tt.key])
		})
	}
}

func TestHandler_RedactsInsideGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("accounts", "1.0.0", "json", &buf)

	logger.Info("login", slog.Group("request", slog.String("email", "a@b.c"), slog.String("password", "hunter2")))

	entry := decode(t, &buf)
	request, ok := entry["request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a@b.c", request["email"])
	assert.Equal(t, Redacted, request["password"])
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestHandler_KeepsOrdinaryAttributes(t *testing.T) {
	var buf bytes.Buffer
	Setup("accounts", "1.0.0", "json", &buf).Info("m", "user_id", "01HX", "token_kind", "refresh")

	entry := decode(t, &buf)
	assert.Equal(t, "01HX", entry["user_id"])
	assert.Equal(t, "refresh", entry["token_kind"])
}

func TestSetupLevel_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLevel("accounts", "1.0.0", "json", slog.LevelWarn, &buf)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger := SetDefault("accounts", "2.0.0", "json")

	assert.Same(t, logger, slog.Default())
}
