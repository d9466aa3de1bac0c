package main

import (
	"fmt"

	"github.com/davecheney/doorman/internal/secret"
	"github.com/davecheney/doorman/internal/snowflake"
	"github.com/davecheney/doorman/models"
	"gorm.io/gorm"
)

type CreateApplicationCmd struct {
	Name           string   `required:"" help:"name of the application"`
	RedirectURI    []string `required:"" help:"allowed redirect URIs"`
	Confidential   bool     `default:"true" negatable:"" help:"the client can keep its secret confidential"`
	Owner          uint64   `help:"id of the owning identity"`
	Scopes         string   `help:"scopes granted to the application"`
	SecretStrategy string   `enum:"plain,sha256,bcrypt" default:"bcrypt" help:"strategy used to store the client secret"`
}

func (c *CreateApplicationCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}

	verifier, err := secret.NewVerifier(c.SecretStrategy, "")
	if err != nil {
		return err
	}

	params := models.CreateApplicationParams{
		Name:         c.Name,
		RedirectURIs: c.RedirectURI,
		Confidential: &c.Confidential,
		Scopes:       c.Scopes,
	}
	if c.Owner != 0 {
		owner := snowflake.ID(c.Owner)
		params.OwnerID = &owner
	}

	app, err := models.NewApplications(db, models.Config{Secret: verifier}).Create(params)
	if err != nil {
		return err
	}

	fmt.Printf("client_id: %s\n", app.ClientID)
	fmt.Printf("client_secret: %s\n", app.PlaintextSecret())
	fmt.Println("the client secret is shown once; it cannot be recovered later")
	return nil
}
