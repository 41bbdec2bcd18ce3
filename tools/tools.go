//go:build tools

// Package tools pins development tools outside the main module.
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
)
