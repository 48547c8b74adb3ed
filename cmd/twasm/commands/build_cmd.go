package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kyunghoon/twasm/pkg/client"
	"github.com/kyunghoon/twasm/pkg/transform"
	"github.com/kyunghoon/twasm/pkg/transpiler"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func BuildCommand(c client.Client) *cli.Command {
	return &cli.Command{
		Name:      "build",
		Aliases:   []string{"b"},
		Args:      true,
		ArgsUsage: "<files...>",
		Usage:     "transpile TypeScript files to browser-loadable JavaScript",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"F"},
				Value:   "umd",
				Usage:   "module format: umd or amd",
			},
			&cli.StringFlag{
				Name:    "out-dir",
				Aliases: []string{"o"},
				Usage:   "directory for output files (default: next to each input)",
			},
			&cli.StringFlag{
				Name:  "global-name",
				Usage: "global variable name for the script-tag branch",
			},
			&cli.BoolFlag{
				Name:  "no-interop",
				Usage: "skip CommonJS interop helpers",
			},
			&cli.StringFlag{
				Name:  "engine",
				Value: "native",
				Usage: "transpile engine: native or tsc",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Value:   runtime.NumCPU(),
				Usage:   "max parallel transpiles",
			},
		},
		Action: func(ctx *cli.Context) error {
			files := ctx.Args().Slice()
			if len(files) == 0 {
				return errors.New("no input files")
			}
			format, err := parseFormat(ctx.String("format"))
			if err != nil {
				return err
			}
			engine := transpiler.EngineNative
			switch ctx.String("engine") {
			case "native":
			case "tsc":
				engine = transpiler.EngineTSC
			default:
				return errors.New("invalid engine: " + ctx.String("engine"))
			}

			var group errgroup.Group
			group.SetLimit(max(ctx.Int("jobs"), 1))
			for _, file := range files {
				file := file
				group.Go(func() error {
					source, err := os.ReadFile(file)
					if err != nil {
						return err
					}
					var code string
					if ctx.String("server") != "" {
						resp, err := c.Transpile(client.TranspileRequest{
							Filename:   filepath.Base(file),
							Source:     string(source),
							Format:     ctx.String("format"),
							GlobalName: ctx.String("global-name"),
							NoInterop:  ctx.Bool("no-interop"),
						})
						if err != nil {
							return fmt.Errorf("%s: %w", file, err)
						}
						code = resp.Code
					} else {
						result, err := transpiler.Transpile(
							filepath.Base(file), string(source),
							transpiler.Options{
								Format:     format,
								GlobalName: ctx.String("global-name"),
								NoInterop:  ctx.Bool("no-interop"),
								Engine:     engine,
							})
						if err != nil {
							return fmt.Errorf("%s: %w", file, err)
						}
						code = result.Code
					}
					outPath := outputPath(file, ctx.String("out-dir"))
					if err := os.WriteFile(outPath, []byte(code), 0644); err != nil {
						return err
					}
					fmt.Printf("%s -> %s\n", file, outPath)
					return nil
				})
			}
			return group.Wait()
		},
	}
}

func outputPath(file, outDir string) string {
	name := filepath.Base(file)
	if ext := filepath.Ext(name); ext == ".ts" || ext == ".mts" {
		name = strings.TrimSuffix(name, ext) + ".js"
	} else {
		name += ".js"
	}
	if outDir == "" {
		return filepath.Join(filepath.Dir(file), name)
	}
	return filepath.Join(outDir, name)
}

func parseFormat(name string) (transform.Format, error) {
	switch name {
	case "umd", "":
		return transform.FormatUMD, nil
	case "amd":
		return transform.FormatAMD, nil
	default:
		return transform.FormatUMD, errors.New("invalid format: " + name)
	}
}
