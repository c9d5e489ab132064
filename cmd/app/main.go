package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/coursemover/internal"
	"github.com/starford/coursemover/internal/session"
	pkgconfig "github.com/starford/coursemover/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), "", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func browse(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := internal.BrowseParams{
		Source: session.Params{
			SourceID:          cmd.String("source"),
			SourceDisplayName: cmd.String("name"),
			SourceCategory:    cmd.String("category"),
			SourceParentID:    cmd.String("parent"),
		},
		LogFile: cmd.String("log-file"),
	}
	return internal.RunBrowse(ctx, p, internal.WithConfig(cfg))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func stub(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if f := cmd.String("fixture"); f != "" {
		cfg.Stub.Fixture = f
	}
	if p := cmd.Int("port"); p != 0 {
		cfg.Stub.Port = int(p)
	}
	if cmd.Bool("persist") {
		cfg.Stub.Persist = true
	}
	if err := cfg.Stub.Validate(); err != nil {
		return fmt.Errorf("stub: %w", err)
	}
	return internal.RunStub(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "coursemover",
		Usage:  "Move course outline items between sections, subsections and units",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the move picker HTTP API",
				Action: serve,
			},
			{
				Name:   "browse",
				Usage:  "Pick a destination in the terminal and move an item",
				Action: browse,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Usage: "Usage locator of the item to move", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name of the item", Required: true},
					&cli.StringFlag{Name: "category", Usage: "Item category (section, subsection, unit or a component type)"},
					&cli.StringFlag{Name: "parent", Usage: "Locator of the item's current parent"},
					&cli.StringFlag{Name: "log-file", Usage: "Write JSON logs to this file"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the move tools to an agent over stdio",
				Action: mcp,
			},
			{
				Name:   "stub",
				Usage:  "Run a stub Studio over an outline fixture",
				Action: stub,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "fixture", Usage: "Outline JSON fixture", Sources: cli.EnvVars("STUB_FIXTURE")},
					&cli.IntFlag{Name: "port", Usage: "Listen port"},
					&cli.BoolFlag{Name: "persist", Usage: "Write applied moves back to the fixture"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
