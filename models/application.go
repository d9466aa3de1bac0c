package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davecheney/doorman/internal/crypto"
	"github.com/davecheney/doorman/internal/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrClientIDTaken is returned when a create loses the race for a
// client_id to a concurrent insert. The caller may regenerate and retry;
// this package never retries on its own, a silent retry here could mask a
// uniqueness bug in the generator.
var ErrClientIDTaken = errors.New("client_id already taken")

// An Application is a registered client application.
// An Application owns many AccessTokens and many AccessGrants;
// destroying it destroys them too.
type Application struct {
	snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt    time.Time
	Name         string `gorm:"size:255;not null"`
	ClientID     string `gorm:"size:255;not null;uniqueIndex"`
	Secret       string `gorm:"size:255;not null"` // stored representation, possibly hashed
	Confidential *bool  `gorm:"not null"`
	RedirectURI  string `gorm:"size:255;not null"` // newline joined
	Scopes       string `gorm:"size:255;not null;default:''"`
	OwnerID      *snowflake.ID
	Tokens       []AccessToken `gorm:"constraint:OnDelete:CASCADE;"`
	Grants       []AccessGrant `gorm:"constraint:OnDelete:CASCADE;"`

	// plaintextSecret holds the just generated or just verified plaintext.
	// Not a column; records loaded from the database never carry it, which
	// bounds the window during which plaintext is observable in memory.
	plaintextSecret string
}

// PlaintextSecret returns the transient plaintext secret. It is only
// available on an instance returned by Applications.Create when the
// secret was generated, or by Applications.Authenticate when the
// accepting strategy stores plaintext. Everywhere else it is empty.
func (a *Application) PlaintextSecret() string {
	return a.plaintextSecret
}

// SetRedirectURIs normalises uris to the stored newline joined form. A
// single element that already contains newlines is stored unchanged.
func (a *Application) SetRedirectURIs(uris ...string) {
	a.RedirectURI = strings.Join(uris, "\n")
}

// RedirectURIs returns the stored redirect URIs, one per element.
func (a *Application) RedirectURIs() []string {
	if a.RedirectURI == "" {
		return nil
	}
	return strings.Split(a.RedirectURI, "\n")
}

type Applications struct {
	db  *gorm.DB
	cfg Config
}

func NewApplications(db *gorm.DB, cfg Config) *Applications {
	return &Applications{db: db, cfg: cfg}
}

// CreateApplicationParams are the caller supplied attributes for a new
// Application.
type CreateApplicationParams struct {
	Name         string
	RedirectURIs []string
	Confidential *bool
	OwnerID      *snowflake.ID
	Scopes       string

	// ClientID and Secret, when non blank, are stored verbatim; no
	// generation or transformation happens. Secret must already be in its
	// stored representation. This is how pre-assigned credentials survive
	// a restore or an import.
	ClientID string
	Secret   string
}

// Create registers a new application. When no client id or secret were
// supplied both are generated, and the plaintext secret is available
// exactly once via PlaintextSecret on the returned instance.
func (a *Applications) Create(params CreateApplicationParams) (*Application, error) {
	app := &Application{
		ID:           snowflake.Now(),
		Name:         params.Name,
		ClientID:     params.ClientID,
		Secret:       params.Secret,
		Confidential: params.Confidential,
		OwnerID:      params.OwnerID,
		Scopes:       params.Scopes,
	}
	app.SetRedirectURIs(params.RedirectURIs...)
	if err := a.ensureCredentials(app); err != nil {
		return nil, err
	}
	if err := a.validate(app); err != nil {
		return nil, err
	}
	if err := a.db.Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the unique index race to a concurrent insert
			return nil, fmt.Errorf("create application %q: %w", app.Name, ErrClientIDTaken)
		}
		return nil, err
	}
	return app, nil
}

// ensureCredentials assigns generated credentials to blank fields.
// Credentials supplied by the caller are kept verbatim.
func (a *Applications) ensureCredentials(app *Application) error {
	if app.ClientID == "" {
		app.ClientID = crypto.Token()
	}
	if app.Secret == "" {
		plaintext := crypto.Token()
		stored, err := a.cfg.Secret.Transform(plaintext)
		if err != nil {
			return err
		}
		app.Secret = stored
		app.plaintextSecret = plaintext
	}
	return nil
}

// validate applies the creation policy. The client_id uniqueness check
// here is advisory; the unique index is the authority under concurrency.
func (a *Applications) validate(app *Application) error {
	fields := make(map[string]string)
	if strings.TrimSpace(app.Name) == "" {
		fields["name"] = "is required"
	}
	if app.Confidential == nil {
		fields["confidential"] = "must be set true or false"
	}
	if app.ClientID == "" {
		fields["client_id"] = "is required"
	}
	if app.Secret == "" {
		fields["secret"] = "is required"
	}
	if app.RedirectURI == "" {
		fields["redirect_uri"] = "is required"
	}
	if a.cfg.RequireOwner && app.OwnerID == nil {
		fields["owner"] = "is required"
	}
	if app.ClientID != "" {
		var count int64
		if err := a.db.Model(&Application{}).Where("client_id = ? AND id <> ?", app.ClientID, app.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			fields["client_id"] = "has already been taken"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Authenticate finds the application with the given client id and
// verifies candidate against its stored secret. A miss, whether the id
// is unknown or the secret wrong, returns nil, nil; the two cases are
// deliberately indistinguishable.
//
// Non confidential applications authenticate by id alone when candidate
// is blank. A wrong candidate fails even for them.
func (a *Applications) Authenticate(clientID, candidate string) (*Application, error) {
	if clientID == "" {
		return nil, nil
	}
	var app Application
	err := a.db.Where("client_id = ?", clientID).First(&app).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	if candidate == "" && app.Confidential != nil && !*app.Confidential {
		return &app, nil
	}
	strategy, ok := a.cfg.Secret.Verify(app.Secret, candidate)
	if !ok {
		return nil, nil
	}
	if strategy.AllowsRestoringPlaintext() {
		app.plaintextSecret = candidate
	}
	return &app, nil
}

// Find returns the application with the given id.
func (a *Applications) Find(id snowflake.ID) (*Application, error) {
	var app Application
	return &app, a.db.First(&app, "id = ?", id).Error
}

// FindByClientID returns the application with the given client id without
// verifying any secret. The transient plaintext is never populated on
// this path.
func (a *Applications) FindByClientID(clientID string) (*Application, error) {
	var app Application
	return &app, a.db.First(&app, "client_id = ?", clientID).Error
}

// orderable maps caller supplied sort fields to columns.
var orderable = map[string]string{
	"id":         "id",
	"name":       "name",
	"client_id":  "client_id",
	"created_at": "created_at",
}

// OrderedBy returns all applications sorted by field, ascending unless
// desc. Ties are broken by id, so the order is stable.
func (a *Applications) OrderedBy(field string, desc bool) ([]Application, error) {
	column, ok := orderable[field]
	if !ok {
		return nil, fmt.Errorf("cannot order by %q", field)
	}
	var apps []Application
	err := a.db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order("id").
		Find(&apps).Error
	return apps, err
}

// AuthorizedFor returns the applications holding at least one non
// revoked token for owner, each at most once, in the order the owner
// first authorised them. Applications whose only tokens for owner are
// revoked are excluded.
func (a *Applications) AuthorizedFor(owner snowflake.ID) ([]Application, error) {
	tokens, err := NewTokens(a.db).ActiveFor(owner)
	if err != nil {
		return nil, err
	}
	seen := make(map[snowflake.ID]bool)
	var ids []snowflake.ID
	for _, token := range tokens {
		if !seen[token.ApplicationID] {
			seen[token.ApplicationID] = true
			ids = append(ids, token.ApplicationID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var apps []Application
	if err := a.db.Where("id IN ?", ids).Find(&apps).Error; err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]Application, len(apps))
	for _, app := range apps {
		byID[app.ID] = app
	}
	ordered := make([]Application, 0, len(ids))
	for _, id := range ids {
		if app, ok := byID[id]; ok {
			ordered = append(ordered, app)
		}
	}
	return ordered, nil
}

// RevokeTokensAndGrantsFor revokes every non revoked token and grant
// belonging to the application, scoped to owner when owner is non nil.
// The two revocations are independent of each other; the order below is
// not significant.
func (a *Applications) RevokeTokensAndGrantsFor(appID snowflake.ID, owner *snowflake.ID) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		return forEach(tx,
			func(tx *gorm.DB) error {
				return NewTokens(tx).RevokeAllFor(appID, owner)
			},
			func(tx *gorm.DB) error {
				return NewGrants(tx).RevokeAllFor(appID, owner)
			},
		)
	})
}

// Destroy removes the application and every grant and token that belongs
// to it, revoked or not. The fan out to the dependent tables is an
// explicit step rather than left to foreign key constraints, so it
// behaves the same on every dialect.
func (a *Applications) Destroy(app *Application) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		return forEach(tx,
			func(tx *gorm.DB) error {
				return tx.Where("application_id = ?", app.ID).Delete(&AccessGrant{}).Error
			},
			func(tx *gorm.DB) error {
				return tx.Where("application_id = ?", app.ID).Delete(&AccessToken{}).Error
			},
			func(tx *gorm.DB) error {
				return tx.Delete(app).Error
			},
		)
	})
}
