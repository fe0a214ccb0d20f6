// Package util provides small internal helpers shared across packages.
package util

import "github.com/google/uuid"

// NewID generates a unique identifier for runs.
func NewID() string { return uuid.NewString() }
