package main

import (
	"context"
	"fmt"
	"github.com/agajdosi/artificial-witness/internal/config"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/logging"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func run(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
	lookupEnv func(string) (string, bool),
) error {
	cfg, err := config.Load(lookupEnv)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return err
	}
	logger := logging.NewLogger(stderr, cfg.LogLevel)

	app, err := newApplication(ctx, cfg, stdout, stderr, logger)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "could not start", errors.SlogError(err))
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "could not close state", errors.SlogError(closeErr))
		}
	}()

	root := newRootCmd(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err = root.ExecuteContext(ctx); err != nil {
		// Failures of game operations are rendered from the error slot, everything else is printed here.
		if app.slots.ErrorMessage.Get().Empty() {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
