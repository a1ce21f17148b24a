// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

// Command accounts runs the online cinema accounts service: registration,
// activation, login, token rotation, password recovery and profiles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// One-shot commands stop on SIGINT/SIGTERM; serve installs its own handler.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
