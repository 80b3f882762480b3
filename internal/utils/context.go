// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys, session token
// inspection, HTTP client initialization and identifier generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// PassIDCtxKey is the key used to store the identifier of the running sync
// pass in the context.
//
// Example of writing a value to the context:
//
//	ctx := utils.WithPassID(ctx, "0190f1c2-...")
var PassIDCtxKey = contextKey("passID")

// WithPassID returns a copy of ctx carrying the sync pass identifier.
func WithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, PassIDCtxKey, passID)
}

// GetPassIDFromContext retrieves the sync pass identifier from the context.
//
// Returns the pass ID and an ok flag:
//   - ok == true  - value is found and is a non-empty string
//   - ok == false - value is missing or has an unexpected type
func GetPassIDFromContext(ctx context.Context) (string, bool) {
	passID, ok := ctx.Value(PassIDCtxKey).(string)
	return passID, ok && passID != ""
}
