// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/symdex/internal/bootstrap"
	"github.com/kraklabs/symdex/internal/config"
	"github.com/kraklabs/symdex/internal/errors"
	"github.com/kraklabs/symdex/internal/output"
	"github.com/kraklabs/symdex/internal/ui"
)

// app carries what every command needs once flags are parsed.
type app struct {
	globals  GlobalFlags
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *bootstrap.Pipeline
	out      *output.Printer
	progress ProgressConfig
}

// newApp loads configuration and wires the pipeline. Output goes to
// stdout; logs and progress go to stderr.
func newApp(globals GlobalFlags, stdout io.Writer) (*app, error) {
	if globals.JSON {
		globals.Quiet = true
	}
	cfg, err := config.LoadConfig(globals.ConfigPath)
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot load symdex configuration",
			err.Error(),
			"Fix the file or recreate it with: symdex init --force",
			err,
		)
	}

	ui.InitColors(!ui.ColorEnabled(globals.NoColor, os.Stdout))
	logger := bootstrap.NewLogger(os.Stderr, globals.Debug)
	slog.SetDefault(logger)

	return &app{
		globals:  globals,
		cfg:      cfg,
		logger:   logger,
		pipeline: bootstrap.Open(cfg, logger),
		out:      output.NewPrinter(stdout, globals.JSON),
		progress: NewProgressConfig(globals),
	}, nil
}

// mustApp is newApp for command entry points: it exits on failure.
func mustApp(globals GlobalFlags) *app {
	a, err := newApp(globals, os.Stdout)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	return a
}

// fail maps err to a user error and exits.
func (a *app) fail(err error, msg string) {
	_ = a.pipeline.Close()
	errors.FatalError(errors.FromError(err, msg), a.globals.JSON)
}

func (a *app) close() {
	_ = a.pipeline.Close()
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutdown.signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// withTimeout bounds ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// addJSONFlag lets a command accept --json after its name too.
func addJSONFlag(fs *flag.FlagSet, globals *GlobalFlags) {
	fs.BoolVar(&globals.JSON, "json", globals.JSON, "Output as JSON")
}

// requireArgs exits with an input error unless fs has exactly n positional
// arguments.
func requireArgs(fs *flag.FlagSet, n int, globals GlobalFlags, usage string) []string {
	if fs.NArg() != n {
		errors.FatalError(errors.NewInputError(
			"Wrong number of arguments",
			usage,
			"Run: symdex "+fs.Name()+" --help",
		), globals.JSON)
	}
	return fs.Args()
}
