package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nanoncore/onuwatch"
	"github.com/nanoncore/onuwatch/config"
	"github.com/nanoncore/onuwatch/dashboard"
	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/tui"
)

const healthCheckTimeout = 10 * time.Second

type options struct {
	configPath  string
	envFile     string
	writeConfig string
	backend     string
	name        string
	board       int
	pon         int
	debug       bool
	check       bool
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to onuwatch.toml (searched when empty)")
	flag.StringVar(&opts.envFile, "env-file", ".env", "Path to a dotenv file with ONUWATCH_* overrides")
	flag.StringVar(&opts.writeConfig, "write-config", "", "Write a default config file to this path and exit")
	flag.StringVar(&opts.backend, "backend", "", "Directory backend (rest, snmp, cli, gnmi, netconf, mock)")
	flag.StringVar(&opts.name, "name", "", "OLT name shown in the header")
	flag.IntVar(&opts.board, "board", 0, "Initial board")
	flag.IntVar(&opts.pon, "pon", 0, "Initial PON port")
	flag.BoolVar(&opts.debug, "debug", false, "Log at debug level")
	flag.BoolVar(&opts.check, "check", false, "Check the directory is reachable and exit")
	flag.Parse()
	return opts
}

func run() error {
	opts := parseFlags()

	if opts.writeConfig != "" {
		if err := config.WriteDefaultTOML(opts.writeConfig); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", opts.writeConfig)
		return nil
	}

	cfg, usedPath, err := config.Load(config.LoadOptions{Path: opts.configPath, EnvFile: opts.envFile})
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closer, err := logger.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	appLog := logger.Global()
	appLog.Info().
		Str("config", usedPath).
		Str("backend", cfg.Directory.Backend).
		Int("board", cfg.Dashboard.Board).
		Int("pon", cfg.Dashboard.PON).
		Msg("Starting onuwatch")

	dir, err := onuwatch.NewDirectory(onuwatch.Protocol(cfg.Directory.Backend), cfg.DirectoryConfig(opts.name))
	if err != nil {
		return err
	}
	defer func() {
		if err := dir.Close(); err != nil {
			appLog.Warn().Err(err).Msg("Failed to close directory")
		}
	}()

	if opts.check {
		return healthCheck(dir, cfg.Directory.Backend)
	}

	vm, err := dashboard.NewViewModel(cfg.DashboardOptions(), appLog)
	if err != nil {
		return err
	}
	cmds := dashboard.NewCommands(dir, cfg.Directory.CommandTimeout, appLog)

	title := opts.name
	if title == "" {
		title = cfg.Directory.Backend
	}
	m := tui.New(vm, cmds, tui.Config{Title: title, PollInterval: cfg.Dashboard.PollInterval}, appLog)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard stopped: %w", err)
	}

	appLog.Info().Msg("onuwatch stopped")
	return nil
}

// applyFlags overrides the loaded config with flags that were set.
func applyFlags(cfg *config.Config, opts options) {
	if opts.backend != "" {
		cfg.Directory.Backend = opts.backend
	}
	if opts.board != 0 {
		cfg.Dashboard.Board = opts.board
	}
	if opts.pon != 0 {
		cfg.Dashboard.PON = opts.pon
	}
	if opts.debug {
		cfg.Log.Debug = true
	}
	// The health check prints to the terminal, so it also logs there.
	if opts.check && cfg.Log.Output == logger.DefaultConfig().Output {
		cfg.Log.Output = "stderr"
	}
}

func healthCheck(dir onuwatch.Directory, backend string) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := dir.HealthCheck(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s directory did not answer within %s", backend, healthCheckTimeout)
		}
		return fmt.Errorf("%s directory unreachable: %w", backend, err)
	}
	fmt.Fprintf(os.Stdout, "%s directory OK\n", backend)
	return nil
}
