package models

import (
	"testing"
	"time"

	"github.com/davecheney/doorman/internal/secret"
	"github.com/davecheney/doorman/internal/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	require.NoError(err)

	err = db.AutoMigrate(AllTables()...)
	require.NoError(err)

	// enable foreign key constraints
	err = db.Exec("PRAGMA foreign_keys = ON").Error
	require.NoError(err)

	return db
}

// testConfig builds a Config for the given strategy names.
func testConfig(t *testing.T, current, fallback string) Config {
	t.Helper()
	v, err := secret.NewVerifier(current, fallback)
	require.NoError(t, err)
	return Config{Secret: v}
}

func ptr[T any](v T) *T { return &v }

// MockApplication creates a confidential application in the database.
func MockApplication(t *testing.T, tx *gorm.DB, cfg Config, name string) *Application {
	t.Helper()
	require := require.New(t)

	app, err := NewApplications(tx, cfg).Create(CreateApplicationParams{
		Name:         name,
		RedirectURIs: []string{"https://" + name + ".example.com/callback"},
		Confidential: ptr(true),
	})
	require.NoError(err)
	return app
}

// IssuedAt backdates a token so ordering tests are not at the mercy of
// the wall clock.
func IssuedAt(ts time.Time) func(*AccessToken) {
	return func(t *AccessToken) {
		t.CreatedAt = ts
	}
}

// MockToken creates an access token for app on behalf of owner.
func MockToken(t *testing.T, tx *gorm.DB, app *Application, owner snowflake.ID, opts ...func(*AccessToken)) *AccessToken {
	t.Helper()
	require := require.New(t)

	token := &AccessToken{
		ID:              snowflake.Now(),
		ApplicationID:   app.ID,
		ResourceOwnerID: owner,
		Token:           uuid.New().String(),
		Scopes:          "read write",
	}
	for _, opt := range opts {
		opt(token)
	}
	require.NoError(tx.Create(token).Error)
	return token
}

// MockGrant creates an access grant for app on behalf of owner.
func MockGrant(t *testing.T, tx *gorm.DB, app *Application, owner snowflake.ID) *AccessGrant {
	t.Helper()
	require := require.New(t)

	grant := &AccessGrant{
		ID:              snowflake.Now(),
		ApplicationID:   app.ID,
		ResourceOwnerID: owner,
		Token:           uuid.New().String(),
		RedirectURI:     "https://example.com/callback",
		Scopes:          "read",
	}
	require.NoError(tx.Create(grant).Error)
	return grant
}

// revoke marks a token revoked directly, bypassing the services.
func revoke(t *testing.T, tx *gorm.DB, token *AccessToken) {
	t.Helper()
	now := time.Now()
	require.NoError(t, tx.Model(token).Update("revoked_at", now).Error)
}
