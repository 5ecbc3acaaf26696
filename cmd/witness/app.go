package main

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/ai"
	"github.com/agajdosi/artificial-witness/internal/answers"
	"github.com/agajdosi/artificial-witness/internal/api"
	"github.com/agajdosi/artificial-witness/internal/config"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/identity"
	"github.com/agajdosi/artificial-witness/internal/session"
	"github.com/agajdosi/artificial-witness/internal/slotstore"
	"github.com/agajdosi/artificial-witness/internal/sqlite"
	"io"
	"log/slog"
)

type application struct {
	cfg         config.Config
	logger      *slog.Logger
	db          *sqlite.Database
	slots       *slotstore.Slots
	players     *identity.Provider
	api         *api.Client
	answers     *answers.Adapter
	session     *session.Client
	local       *ai.Client
	out         io.Writer
	games       *gameRenderer
	unsubscribe []func()
}

func newApplication(
	ctx context.Context,
	cfg config.Config,
	stdout, stderr io.Writer,
	logger *slog.Logger,
) (*application, error) {
	db, err := sqlite.NewDatabase(ctx, cfg.StatePath, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open state", slog.String("path", cfg.StatePath))
	}
	apiClient, err := api.NewClient(cfg.APIURL, nil, logger)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create api client")
	}

	slots := slotstore.OpenSlots(ctx, slotstore.NewStore(db, logger))
	players := identity.NewProvider(slots.Player, logger)
	answerAdapter := answers.NewAdapter(apiClient, logger)
	app := &application{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		slots:   slots,
		players: players,
		api:     apiClient,
		answers: answerAdapter,
		session: session.NewClient(apiClient, slots.Game, players, answerAdapter, logger),
		local:   ai.NewClient(cfg.LocalModelsService, cfg.LocalModelsURL, cfg.OpenAIAPIKey, nil, logger),
		out:     stdout,
		games:   newGameRenderer(stdout),
	}
	app.unsubscribe = append(app.unsubscribe,
		slots.Game.Subscribe(app.games.observe),
		slots.ErrorMessage.Subscribe(newErrorRenderer(stderr)),
	)
	return app, nil
}

// fail publishes err to the error slot and returns it.
func (app *application) fail(ctx context.Context, err error) error {
	if _, setErr := app.slots.ErrorMessage.Set(ctx, session.ErrorMessageFor(err)); setErr != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "could not publish error", errors.SlogError(setErr))
	}
	return err
}

func (app *application) Close() error {
	for _, unsubscribe := range app.unsubscribe {
		unsubscribe()
	}
	return app.db.Close() //nolint:wrapcheck // already annotated
}
