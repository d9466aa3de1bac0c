package models

import (
	"time"

	"github.com/davecheney/doorman/internal/snowflake"
	"gorm.io/gorm"
)

// An AccessToken is a bearer credential issued to an Application on
// behalf of a resource owner. An AccessToken belongs to an Application.
// Issue and expiry semantics live elsewhere; this package only tracks
// ownership and revocation.
type AccessToken struct {
	snowflake.ID    `gorm:"primarykey;autoIncrement:false"`
	CreatedAt       time.Time
	ApplicationID   snowflake.ID
	Application     *Application `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	ResourceOwnerID snowflake.ID
	Token           string `gorm:"size:255;not null;uniqueIndex"`
	Scopes          string `gorm:"size:255;not null;default:''"`
	ExpiresIn       int    `gorm:"not null;default:0"` // seconds, 0 means no expiry
	RevokedAt       *time.Time
}

// Revoked reports whether the token has been revoked.
func (t *AccessToken) Revoked() bool {
	return t.RevokedAt != nil
}

type Tokens struct {
	db *gorm.DB
}

func NewTokens(db *gorm.DB) *Tokens {
	return &Tokens{db: db}
}

// ActiveFor returns the owner's non revoked tokens in issue order.
func (t *Tokens) ActiveFor(owner snowflake.ID) ([]AccessToken, error) {
	var tokens []AccessToken
	err := t.db.
		Where("resource_owner_id = ? AND revoked_at IS NULL", owner).
		Order("created_at").
		Order("id").
		Find(&tokens).Error
	return tokens, err
}

// RevokeAllFor revokes the application's non revoked tokens, scoped to
// owner when owner is non nil. Already revoked tokens keep their original
// revocation time.
func (t *Tokens) RevokeAllFor(appID snowflake.ID, owner *snowflake.ID) error {
	q := t.db.Model(&AccessToken{}).
		Where("application_id = ? AND revoked_at IS NULL", appID)
	if owner != nil {
		q = q.Where("resource_owner_id = ?", *owner)
	}
	return q.Update("revoked_at", time.Now()).Error
}
