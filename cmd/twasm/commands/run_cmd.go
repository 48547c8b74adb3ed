package commands

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/kyunghoon/twasm/pkg/client"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func Run(c client.Client, version string) error {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		bv := buildInfo.Main.Version
		if bv != "" && bv != "(devel)" {
			version = buildInfo.Main.Version
		}
	}

	app := &cli.App{
		Name:    "twasm",
		Usage:   "a command line interface for the twasm TypeScript transpiler",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"S"},
				EnvVars: []string{"TWASM_SERVER"},
				Usage:   "transpile through a remote twasm-server instead of in-process",
			},
			&cli.StringFlag{
				Name:    "auth",
				Aliases: []string{"a"},
				EnvVars: []string{"TWASM_AUTH"},
				Usage:   "basic auth username:password; or just username for password prompt",
			},
			&cli.BoolFlag{
				Name:        "follow",
				DefaultText: "false",
				Aliases:     []string{"f"},
				EnvVars:     []string{"TWASM_FOLLOW_REDIRECTS"},
				Usage:       "follow redirects from the server",
			},
			&cli.BoolFlag{
				Name:        "verbose",
				DefaultText: "false",
				Aliases:     []string{"V"},
				Usage:       "enable verbose logging",
			},
		},
		Before: func(ctx *cli.Context) (err error) {
			server := ctx.String("server")
			if server == "" {
				return nil
			}
			var authOption client.Options = func(c client.Client) {}
			if auth := ctx.String("auth"); strings.Contains(auth, ":") {
				pair := strings.SplitN(auth, ":", 2)
				username := pair[0]
				password := ""
				if len(pair) > 1 {
					password = pair[1]
				}
				authOption = client.WithBasicAuth(username, password)
			} else if auth != "" {
				fmt.Printf("password for %s:", auth)
				password, err := term.ReadPassword(0)
				if err != nil {
					return err
				}
				fmt.Print("\n")
				authOption = client.WithBasicAuth(auth, string(password))
			}
			return c.Init(
				server, nil,
				authOption,
				client.WithFollowRedirect(
					ctx.Bool("follow"),
				),
				client.WithUserAgent(
					"twasm CLI "+version+
						";os="+runtime.GOOS+
						";arch="+runtime.GOARCH,
				),
				client.WithVerboseLogging(
					ctx.Bool("verbose"),
				),
			)
		},
		Action: func(ctx *cli.Context) error {
			return ctx.App.Command("help").Run(ctx)
		},
		Commands: []*cli.Command{
			BuildCommand(c),
			RunCommand(c),
		},
	}

	return app.Run(os.Args)
}
