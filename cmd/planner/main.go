package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/app"
	"github.com/andresuchdata/shipment-priority/internal/config"
	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/service"
	"github.com/andresuchdata/shipment-priority/pkg/logger"
	"github.com/urfave/cli/v2"
)

// planner is built by the Before hook and shared by every command.
var planner *app.App

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Postgres connection string for the reference store (overrides REFERENCE_STORE)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "First shipment date to plan (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "to", Usage: "Last shipment date to plan (YYYY-MM-DD)"},
		&cli.BoolFlag{Name: "refresh", Usage: "Ignore cached sources"},
	}
}

func thresholdFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "threshold",
		Usage:   "Container count at which a row is flagged urgent",
		EnvVars: []string{"PLANNER_URGENT_THRESHOLD"},
	}
}

func setup(c *cli.Context) error {
	cfg := config.Load()

	if v := c.String("reference"); v != "" {
		cfg.Sources.Reference = v
	}
	if v := c.String("demand"); v != "" {
		cfg.Sources.Demand = v
	}
	if v := c.String("floor"); v != "" {
		cfg.Sources.Floor = v
	}

	level := cfg.Server.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger.SetOutput(os.Stderr, "debug")
	logger.SetLevel(level)

	a, err := app.New(c.Context, cfg, app.Options{
		DatabaseURL:  c.String("db-url"),
		CacheBackend: c.String("cache"),
	})
	if err != nil {
		return err
	}
	planner = a
	return nil
}

func teardown(*cli.Context) error {
	if planner == nil {
		return nil
	}
	return planner.Close()
}

func fromContext(*cli.Context) (*app.App, error) {
	if planner == nil {
		return nil, errors.New("planner not initialized")
	}
	return planner, nil
}

func planRequest(c *cli.Context) (service.PlanRequest, error) {
	req := service.PlanRequest{ForceRefresh: c.Bool("refresh")}
	for _, name := range []string{"from", "to"} {
		value := c.String(name)
		if value == "" {
			continue
		}
		t, err := time.Parse(domain.DateLayout, value)
		if err != nil {
			return req, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
		}
		if name == "from" {
			req.From = &t
		} else {
			req.To = &t
		}
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return req, errors.New("--to must not be before --from")
	}
	return req, nil
}

func threshold(c *cli.Context, a *app.App) int {
	if c.IsSet("threshold") {
		return c.Int("threshold")
	}
	return a.Config.Planner.UrgentThreshold
}

func main() {
	cliApp := &cli.App{
		Name:  "planner",
		Usage: "Plan production containers from shipment demand and inventory",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{Name: "reference", Usage: "Reference source (path, URL, drive://, s3://, store://references)", EnvVars: []string{"SOURCE_REFERENCE"}},
			&cli.StringFlag{Name: "demand", Usage: "Demand source", EnvVars: []string{"SOURCE_DEMAND"}},
			&cli.StringFlag{Name: "floor", Usage: "Floor inventory source", EnvVars: []string{"SOURCE_FLOOR"}},
			&cli.StringFlag{Name: "cache", Usage: "Source cache backend: memory, redis or none", EnvVars: []string{"CACHE_BACKEND"}},
			&cli.StringFlag{Name: "log-level", Usage: "Log level", Value: "warn"},
		},
		Before:   setup,
		After:    teardown,
		Commands: []*cli.Command{runCommand(), exportCommand(), nonUsableCommand(), refsCommand()},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("planner failed")
	}
}
