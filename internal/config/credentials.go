// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// Credentials holds the graph store password sealed in an Enclave -
// encrypted, non-swappable memory - from the moment it's read off the
// environment until internal/store's Neo4jAdapter dials. It never
// touches IngestConfig, so the config value stays safe to log.
type Credentials struct {
	password *memguard.Enclave
}

// NewCredentials seals password into a fresh enclave. memguard wipes the
// byte copy it is handed once the enclave is sealed; the password string
// argument itself is not wiped.
func NewCredentials(password string) *Credentials {
	return &Credentials{password: memguard.NewEnclave([]byte(password))}
}

// CredentialsFromEnv reads the given environment variable and seals it.
// Returns an error if the variable is unset or empty - an ingest run has
// no business starting without a graph store password.
func CredentialsFromEnv(envVar string) (*Credentials, error) {
	password := os.Getenv(envVar)
	if password == "" {
		return nil, fmt.Errorf("%w: environment variable %s is unset", model.ErrInvalidConfig, envVar)
	}
	return NewCredentials(password), nil
}

// Open decrypts the password into a LockedBuffer. Callers must call
// Destroy on the result as soon as the adapter constructor has copied
// what it needs - internal/store.NewNeo4jAdapter keeps only its own
// string copy, inside the driver's auth token.
func (c *Credentials) Open() (*memguard.LockedBuffer, error) {
	lb, err := c.password.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open credential enclave: %v", model.ErrIO, err)
	}
	return lb, nil
}
