// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Online Cinema Contributors

//go:build tools

// Package main pins dependencies that are only imported behind build tags,
// so go mod tidy keeps them.
package main

import (
	// Integration suite (integration tag)
	_ "github.com/onsi/ginkgo/v2"
	_ "github.com/onsi/gomega"
	_ "github.com/testcontainers/testcontainers-go"
	_ "github.com/testcontainers/testcontainers-go/modules/postgres"
)
