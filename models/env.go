package models

import (
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

// Env is the environment shared by the credential services and the
// handlers built on top of them.
type Env struct {
	// DB is the database connection.
	DB     *gorm.DB
	Config Config
	Logger *slog.Logger
}

func (e *Env) Log() *slog.Logger {
	return e.Logger
}

// Applications returns an Applications service bound to the environment's
// database and configuration.
func (e *Env) Applications() *Applications {
	return NewApplications(e.DB, e.Config)
}

func (e *Env) Tokens() *Tokens {
	return NewTokens(e.DB)
}

func (e *Env) Grants() *Grants {
	return NewGrants(e.DB)
}
