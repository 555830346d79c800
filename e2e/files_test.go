// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package e2e

import (
	"context"
	"fmt"
	"github.com/hchauvin/smoke/pkg/smoke"
	smoketesting "github.com/hchauvin/smoke/pkg/testing"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// The .env file is optional.
	if err := godotenv.Load("../.env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "cannot load ../.env: %v\n", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func skipUnlessE2E(t *testing.T) {
	if os.Getenv("SMOKE_E2E") == "" {
		t.Skip("SMOKE_E2E is not set")
	}
}

// TestGetRequest targets a server already listening on localhost:4221,
// started with, e.g., "smoke serve --root e2e/testdata".
func TestGetRequest(t *testing.T) {
	skipUnlessE2E(t)

	err := smoke.Run(context.Background(), os.Stdout)
	assert.NoError(t, err)
}

func TestFileBody(t *testing.T) {
	skipUnlessE2E(t)

	err := smoketesting.ExpectBody(context.Background(), "http://localhost:4221/files/banana", "banana\n")
	assert.NoError(t, err)
}
