package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hyperresource/internal/cmd/base"
	"github.com/hashicorp-forge/hyperresource/internal/cmd/commands/get"
	"github.com/hashicorp-forge/hyperresource/internal/cmd/commands/version"
)

// Commands is the mapping of all available hyperctl commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"get": func() (cli.Command, error) {
			return &get.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
