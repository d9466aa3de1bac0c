package oauth

import (
	"fmt"
	"net/http"

	"github.com/davecheney/doorman/internal/httpx"
	"github.com/davecheney/doorman/internal/snowflake"
	"github.com/davecheney/doorman/internal/to"
	"github.com/davecheney/doorman/models"
	"github.com/go-chi/chi/v5"
)

// AuthorizedAppsIndex lists the applications the owner has at least one
// live token for, in the order they were first authorised.
func AuthorizedAppsIndex(env *models.Env, w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerParam(r)
	if err != nil {
		return err
	}
	apps, err := env.Applications().AuthorizedFor(owner)
	if err != nil {
		return err
	}
	return to.JSON(w, serialiseAll(apps))
}

// AuthorizedAppsDestroy revokes every token and grant the application
// holds for the owner. The application itself survives.
func AuthorizedAppsDestroy(env *models.Env, w http.ResponseWriter, r *http.Request) error {
	id, err := snowflake.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return httpx.Error(http.StatusBadRequest, err)
	}
	owner, err := ownerParam(r)
	if err != nil {
		return err
	}
	apps := env.Applications()
	app, err := apps.Find(id)
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	if err := apps.RevokeTokensAndGrantsFor(app.ID, &owner); err != nil {
		return err
	}
	env.Log().Info("revoked tokens and grants", "application", app.ID.String(), "owner", owner.String())
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func ownerParam(r *http.Request) (snowflake.ID, error) {
	raw := r.FormValue("owner_id")
	if raw == "" {
		return 0, httpx.Error(http.StatusBadRequest, fmt.Errorf("owner_id is required"))
	}
	owner, err := snowflake.Parse(raw)
	if err != nil {
		return 0, httpx.Error(http.StatusBadRequest, err)
	}
	return owner, nil
}
