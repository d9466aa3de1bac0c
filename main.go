package main

import (
	"github.com/alecthomas/kong"
	"gorm.io/gorm"
)

type Context struct {
	Debug bool

	Dialector gorm.Dialector
	gorm.Config
}

var cli struct {
	Debug bool   `help:"Enable debug mode."`
	DSN   string `required:"" help:"data source name"`

	Serve             ServeCmd             `cmd:"" help:"Serve the client credential API."`
	AutoMigrate       AutoMigrateCmd       `cmd:"" help:"Create or update the database schema."`
	CreateApplication CreateApplicationCmd `cmd:"" help:"Register a client application."`
	DeleteApplication DeleteApplicationCmd `cmd:"" help:"Destroy a client application and everything it owns."`
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&Context{
		Debug:     cli.Debug,
		Dialector: newDialector(cli.DSN),
		Config: gorm.Config{
			// surface unique index violations as gorm.ErrDuplicatedKey
			TranslateError: true,
		},
	})
	ctx.FatalIfErrorf(err)
}
