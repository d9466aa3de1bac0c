package main

import (
	"github.com/davecheney/doorman/models"
	"gorm.io/gorm"
)

type DeleteApplicationCmd struct {
	ClientID string `required:"" help:"client id of the application to destroy"`
}

func (d *DeleteApplicationCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}

	// destroying needs no secret strategy, the zero config will do
	apps := models.NewApplications(db, models.Config{})
	app, err := apps.FindByClientID(d.ClientID)
	if err != nil {
		return err
	}
	return apps.Destroy(app)
}
