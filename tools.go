//go:build tools
// +build tools

// Package tools pins the versions of development binaries in go.mod.
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "github.com/pressly/goose/v3/cmd/goose"
	_ "github.com/vektra/mockery/v2"
)
