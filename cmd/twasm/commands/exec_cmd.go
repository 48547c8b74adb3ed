package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/kyunghoon/twasm/pkg/client"
	"github.com/kyunghoon/twasm/pkg/loader"
	"github.com/kyunghoon/twasm/pkg/transpiler"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func RunCommand(c client.Client) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Args:      true,
		ArgsUsage: "<file.ts | url>",
		Usage:     "inject a TypeScript module into the embedded host and print its exports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "call",
				Usage: "exported function to invoke after loading",
			},
			&cli.StringFlag{
				Name:  "engine",
				Value: "native",
				Usage: "transpile engine: native or tsc",
			},
		},
		Action: func(ctx *cli.Context) error {
			target := ctx.Args().First()
			if target == "" {
				return errors.New("no input file")
			}
			engine := transpiler.EngineNative
			switch ctx.String("engine") {
			case "native":
			case "tsc":
				engine = transpiler.EngineTSC
			default:
				return errors.New("invalid engine: " + ctx.String("engine"))
			}

			logger := zap.NewNop()
			if ctx.Bool("verbose") {
				var err error
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}

			host, err := loader.NewHost(
				loader.WithLogger(logger),
				loader.WithEngine(engine),
			)
			if err != nil {
				return err
			}
			defer host.Close()

			var key uint64
			if strings.HasPrefix(target, "http://") ||
				strings.HasPrefix(target, "https://") {
				key, err = host.InjectURL(ctx.Context, target)
			} else {
				var source []byte
				if source, err = os.ReadFile(target); err != nil {
					return err
				}
				key, err = host.Inject(filepath.Base(target), string(source))
			}
			if err != nil {
				return err
			}

			ns, err := host.Namespace(key)
			if err != nil {
				return err
			}
			if call := ctx.String("call"); call != "" {
				obj := ns.ToObject(host.Runtime())
				fn, ok := goja.AssertFunction(obj.Get(call))
				if !ok {
					return errors.New("no exported function: " + call)
				}
				result, err := fn(goja.Undefined())
				if err != nil {
					return err
				}
				return jsonPrettyPrint(result.Export())
			}
			return jsonPrettyPrint(ns.Export())
		},
	}
}
