// Package oauth exposes client application management over HTTP:
// registration, listing, credential checks, and revocation of a client's
// tokens and grants. Token issuance itself lives elsewhere.
package oauth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/davecheney/doorman/internal/httpx"
	"github.com/davecheney/doorman/internal/snowflake"
	"github.com/davecheney/doorman/internal/to"
	"github.com/davecheney/doorman/models"
	"github.com/go-chi/chi/v5"
)

// Application is the JSON shape returned by the apps endpoints. The
// client secret appears only in the create response, and only in
// plaintext form; the stored representation is never serialised.
type Application struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Confidential bool     `json:"confidential"`
	RedirectURIs []string `json:"redirect_uris"`
	Scopes       string   `json:"scopes"`
}

func serialise(app *models.Application, secret string) Application {
	return Application{
		ID:           app.ID.String(),
		Name:         app.Name,
		ClientID:     app.ClientID,
		ClientSecret: secret,
		Confidential: app.Confidential != nil && *app.Confidential,
		RedirectURIs: app.RedirectURIs(),
		Scopes:       app.Scopes,
	}
}

func serialiseAll(apps []models.Application) []Application {
	out := make([]Application, 0, len(apps))
	for i := range apps {
		out = append(out, serialise(&apps[i], ""))
	}
	return out
}

func AppsCreate(env *models.Env, w http.ResponseWriter, r *http.Request) error {
	var params struct {
		ClientName   string   `json:"client_name" schema:"client_name"`
		RedirectURIs []string `json:"redirect_uris" schema:"redirect_uris"`
		Confidential *bool    `json:"confidential" schema:"confidential"`
		Scopes       string   `json:"scopes" schema:"scopes"`
		OwnerID      *uint64  `json:"owner_id" schema:"owner_id"`
	}
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	createParams := models.CreateApplicationParams{
		Name:         params.ClientName,
		RedirectURIs: params.RedirectURIs,
		Confidential: params.Confidential,
		Scopes:       params.Scopes,
	}
	if params.OwnerID != nil {
		owner := snowflake.ID(*params.OwnerID)
		createParams.OwnerID = &owner
	}
	app, err := env.Applications().Create(createParams)
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			return httpx.Error(http.StatusUnprocessableEntity, verr)
		case errors.Is(err, models.ErrClientIDTaken):
			return httpx.Error(http.StatusConflict, err)
		default:
			return err
		}
	}
	// the plaintext secret is shown exactly once, here
	return to.JSON(w, serialise(app, app.PlaintextSecret()))
}

func AppsIndex(env *models.Env, w http.ResponseWriter, r *http.Request) error {
	var params struct {
		Sort      string `schema:"sort"`
		Direction string `schema:"direction"`
	}
	if err := httpx.Params(r, &params); err != nil {
		return err
	}
	if params.Sort == "" {
		params.Sort = "id"
	}
	apps, err := env.Applications().OrderedBy(params.Sort, params.Direction == "desc")
	if err != nil {
		return httpx.Error(http.StatusBadRequest, err)
	}
	return to.JSON(w, serialiseAll(apps))
}

// AppsVerifyCredentials authenticates a client id and secret pair,
// supplied either as basic auth or as form values. A miss is always a
// 401; the response does not reveal whether the client id exists.
func AppsVerifyCredentials(env *models.Env, w http.ResponseWriter, r *http.Request) error {
	clientID, secret, ok := r.BasicAuth()
	if !ok {
		clientID = r.FormValue("client_id")
		secret = r.FormValue("client_secret")
	}
	app, err := env.Applications().Authenticate(clientID, secret)
	if err != nil {
		return err
	}
	if app == nil {
		return httpx.Error(http.StatusUnauthorized, fmt.Errorf("invalid client credentials"))
	}
	return to.JSON(w, serialise(app, ""))
}

func AppsDestroy(env *models.Env, w http.ResponseWriter, r *http.Request) error {
	id, err := snowflake.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return httpx.Error(http.StatusBadRequest, err)
	}
	apps := env.Applications()
	app, err := apps.Find(id)
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	if err := apps.Destroy(app); err != nil {
		return err
	}
	env.Log().Info("destroyed application", "id", app.ID.String(), "name", app.Name)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
