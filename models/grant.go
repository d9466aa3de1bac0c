package models

import (
	"time"

	"github.com/davecheney/doorman/internal/snowflake"
	"gorm.io/gorm"
)

// An AccessGrant is an authorisation code issued to an Application on
// behalf of a resource owner, exchanged later for an AccessToken. An
// AccessGrant belongs to an Application.
type AccessGrant struct {
	snowflake.ID    `gorm:"primarykey;autoIncrement:false"`
	CreatedAt       time.Time
	ApplicationID   snowflake.ID
	Application     *Application `gorm:"constraint:OnDelete:CASCADE;<-:false;"`
	ResourceOwnerID snowflake.ID
	Token           string `gorm:"size:255;not null;uniqueIndex"`
	RedirectURI     string `gorm:"size:255;not null"`
	Scopes          string `gorm:"size:255;not null;default:''"`
	ExpiresIn       int    `gorm:"not null;default:0"` // seconds, 0 means no expiry
	RevokedAt       *time.Time
}

// Revoked reports whether the grant has been revoked.
func (g *AccessGrant) Revoked() bool {
	return g.RevokedAt != nil
}

type Grants struct {
	db *gorm.DB
}

func NewGrants(db *gorm.DB) *Grants {
	return &Grants{db: db}
}

// RevokeAllFor revokes the application's non revoked grants, scoped to
// owner when owner is non nil.
func (g *Grants) RevokeAllFor(appID snowflake.ID, owner *snowflake.ID) error {
	q := g.db.Model(&AccessGrant{}).
		Where("application_id = ? AND revoked_at IS NULL", appID)
	if owner != nil {
		q = q.Where("resource_owner_id = ?", *owner)
	}
	return q.Update("revoked_at", time.Now()).Error
}
