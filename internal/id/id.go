// Package id generates prefixed NanoID identifiers, e.g.
// "task-V1StGXR8_Z5jdHi6B-myT". The prefix makes an id self-describing in
// logs and in the queue table.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns a new id of the form "<prefix>-<nanoid>". It errors only
// when the system entropy source fails.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate panics on generation failure. For call sites where an entropy
// failure should crash rather than propagate.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
