// Package main provides the riscv-fuzz-test CLI: differential testing of
// RISC-V instruction-set simulators over randomly generated programs.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/canxin121/riscv-fuzz-test/fuzz"
	"github.com/canxin121/riscv-fuzz-test/report"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

func main() {
	app := &cli.App{
		Name:  "riscv-fuzz-test",
		Usage: "differential testing of RISC-V simulators (Spike vs Rocket)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "TOML config file with toolchain and simulator paths",
			},
			&cli.StringFlag{
				Name:  "march",
				Usage: "override the march string programs are built with",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			randomCommand(),
			runCommand(),
			emulateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	level := slog.LevelInfo
	if ctx.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}

func loadHarness(ctx *cli.Context) (*fuzz.Harness, error) {
	cfg, err := fuzz.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if march := ctx.String("march"); march != "" {
		cfg.March = march
	}
	return fuzz.New(cfg), nil
}

func randomCommand() *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "generate and differentially test random programs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "inst-num",
				Value: 10,
				Usage: "instructions per extension in each program",
			},
			&cli.IntFlag{
				Name:  "count",
				Value: 1,
				Usage: "number of random test instances",
			},
			&cli.IntFlag{
				Name:  "parallel",
				Usage: "worker count (default: number of CPUs)",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Value: "random_tests",
				Usage: "parent directory for per-instance results",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "random seed (default: current time)",
			},
		},
		Action: func(ctx *cli.Context) error {
			harness, err := loadHarness(ctx)
			if err != nil {
				return err
			}

			workers := ctx.Int("parallel")
			if workers <= 0 {
				workers = runtime.NumCPU()
			}
			seed := ctx.Int64("seed")
			if !ctx.IsSet("seed") {
				seed = time.Now().UnixNano()
			}

			opts := fuzz.ParallelOptions{
				OutputDir:  ctx.String("output-dir"),
				Instances:  ctx.Int("count"),
				Workers:    workers,
				InstPerExt: ctx.Int("inst-num"),
				Seed:       seed,
			}
			slog.Info("running random mode",
				"instances", opts.Instances, "workers", workers, "seed", seed)

			divergent, err := harness.RunParallel(ctx.Context, opts)
			if err != nil {
				return err
			}
			printVerdict(divergent, opts.Instances)
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "differentially test one assembly file",
		ArgsUsage: "<program.S>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "build-dir",
				Value: "build",
				Usage: "directory for build artifacts and reports",
			},
			&cli.BoolFlag{
				Name:  "auto-retry",
				Value: true,
				Usage: "retry without rocket-only illegal instructions",
			},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return fmt.Errorf("expected exactly one assembly file")
			}
			harness, err := loadHarness(ctx)
			if err != nil {
				return err
			}

			buildDir := ctx.String("build-dir")
			if err := os.MkdirAll(buildDir, 0o755); err != nil {
				return fmt.Errorf("create build dir: %w", err)
			}

			assemblyFile := ctx.Args().First()
			workFile := filepath.Join(buildDir, filepath.Base(assemblyFile))
			if assemblyFile != workFile {
				source, err := os.ReadFile(assemblyFile)
				if err != nil {
					return fmt.Errorf("read %s: %w", assemblyFile, err)
				}
				if err := os.WriteFile(workFile, source, 0o644); err != nil {
					return fmt.Errorf("copy program: %w", err)
				}
			}

			result, err := harness.RunInstance(
				ctx.Context, buildDir, workFile, ctx.Bool("auto-retry"))
			if err != nil {
				return err
			}
			if result.FinalComparison().Clean() {
				printVerdict(0, 1)
			} else {
				printVerdict(1, 1)
			}
			return nil
		},
	}
}

func emulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "emulate",
		Usage:     "build and run one program under a single simulator",
		ArgsUsage: "<program.S>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "emulator",
				Required: true,
				Usage:    "spike or rocket",
			},
			&cli.StringFlag{
				Name:  "build-dir",
				Value: "build",
				Usage: "directory for build artifacts and reports",
			},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return fmt.Errorf("expected exactly one assembly file")
			}
			emulator, err := sim.ParseEmulatorType(ctx.String("emulator"))
			if err != nil {
				return err
			}
			harness, err := loadHarness(ctx)
			if err != nil {
				return err
			}

			buildDir := ctx.String("build-dir")
			if err := os.MkdirAll(buildDir, 0o755); err != nil {
				return fmt.Errorf("create build dir: %w", err)
			}

			out, err := harness.RunOne(ctx.Context, buildDir, ctx.Args().First(), emulator)
			if err != nil {
				return err
			}

			name := emulator.String()
			jsonPath := filepath.Join(buildDir, name+"_output.json")
			if err := report.WriteJSON(jsonPath, out); err != nil {
				return err
			}
			mdPath := filepath.Join(buildDir, name+"_output.md")
			if err := report.WriteMarkdown(mdPath, report.ExecutionMarkdown(name, out)); err != nil {
				return err
			}
			slog.Info("outputs saved", "json", jsonPath, "markdown", mdPath)
			return nil
		},
	}
}

func printVerdict(divergent, total int) {
	if divergent == 0 {
		color.New(color.FgGreen, color.Bold).Printf(
			"PASS: %d/%d instances matched\n", total, total)
		return
	}
	color.New(color.FgRed, color.Bold).Printf(
		"DIVERGENCE: %d/%d instances differ\n", divergent, total)
}
