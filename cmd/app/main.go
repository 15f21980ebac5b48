package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/plugreg/plugreg/internal"
	pkgconfig "github.com/plugreg/plugreg/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(cfg)
}

func newSession(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := internal.NewSession(cfg, cmd.String("email"), cmd.String("user-id"), cmd.Duration("ttl"))
	if err != nil {
		return err
	}

	fmt.Printf("token: %s\nuser_id: %s\nexpires_at: %s\n", s.Token, s.UserID, s.ExpiresAt.Format(time.RFC3339))
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "plugreg",
		Usage:  "Community registry for Capacitor plugins with npm lookup, README extraction, and search",
		Action: run,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve registry tools over MCP stdio transport",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:  "session",
				Usage: "Manage bearer sessions for session auth mode",
				Commands: []*cli.Command{
					{
						Name:   "new",
						Usage:  "Mint a session token",
						Action: newSession,
						Flags: []cli.Flag{
							configFlag,
							&cli.StringFlag{
								Name:  "email",
								Usage: "Email recorded on the session",
							},
							&cli.StringFlag{
								Name:  "user-id",
								Usage: "User id to bind the session to (generated when empty)",
							},
							&cli.DurationFlag{
								Name:  "ttl",
								Usage: "Session lifetime",
								Value: 30 * 24 * time.Hour,
							},
						},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
