package models

import "github.com/davecheney/doorman/internal/secret"

// Config carries the process wide policy for the credential services.
// It is constructed once at startup and passed explicitly; nothing in
// this package reads ambient global state, so tests can substitute
// configurations freely.
type Config struct {
	// Secret transforms new client secrets and verifies candidates,
	// optionally falling back to a legacy strategy during a migration.
	Secret secret.Verifier

	// RequireOwner requires every application to reference an owner.
	RequireOwner bool
}
