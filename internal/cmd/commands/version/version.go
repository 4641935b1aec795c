package version

import (
	"fmt"

	"github.com/hashicorp-forge/hyperresource/internal/cmd/base"
	"github.com/hashicorp-forge/hyperresource/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the hyperctl version"
}

func (c *Command) Help() string {
	return `Usage: hyperctl version

  Print the hyperctl version.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(fmt.Sprintf("hyperctl %s", version.Version))
	return 0
}
