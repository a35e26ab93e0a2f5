package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/docmesh-go/internal/cli/output"
	"github.com/yndnr/docmesh-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			flags, err := ParseGlobalFlags(c)
			if err != nil {
				return err
			}
			if flags.Output == output.FormatTable {
				return output.NewFormatter(flags.Output).Format(writer(c), buildinfo.String("docmesh-cli"))
			}
			return output.NewFormatter(flags.Output).Format(writer(c), buildinfo.Get())
		},
	}
}
