package main

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/answers"
	"github.com/agajdosi/artificial-witness/internal/api"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/identity"
	"github.com/agajdosi/artificial-witness/internal/logging"
	"github.com/agajdosi/artificial-witness/internal/session"
	"github.com/agajdosi/artificial-witness/internal/slotstore"
	"github.com/agajdosi/artificial-witness/internal/sqlite"
	"log/slog"
	"os"
	"time"
)

// PlayGame walks through one round of a game: pick a model, start, advance, eliminate and read the leaderboard.
func PlayGame(ctx context.Context, apiClient *api.Client, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute) //nolint:mnd // answers come from a real model
	defer cancel()

	if err := apiClient.WaitForReady(ctx, 10*time.Second); err != nil { //nolint:mnd // 10 seconds
		return errors.Wrap(err, "wait for server")
	}

	// The state is thrown away so that every run plays as a new player.
	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		return errors.Wrap(err, "open state")
	}
	defer func() {
		_ = db.Close()
	}()
	slots := slotstore.OpenSlots(ctx, slotstore.NewStore(db, logger))
	players := identity.NewProvider(slots.Player, logger)
	client := session.NewClient(apiClient, slots.Game, players, answers.NewAdapter(apiClient, logger), logger)

	available, err := client.ListAvailableModels(ctx, true, "")
	if err != nil {
		return errors.Wrap(err, "list models")
	}
	if len(available) == 0 {
		return errors.New("server offers no allowed model")
	}
	model := available[0].Name
	ctx = logging.WithAttrs(ctx, slog.String("model", model))

	if _, err = client.StartNewGame(ctx, model); err != nil {
		return errors.Wrap(err, "start new game")
	}
	if err = client.AdvanceRound(ctx); err != nil {
		return errors.Wrap(err, "advance round")
	}

	game := slots.Game.Get()
	round, ok := game.Investigation.LastRound()
	if !ok || round.Answer == "" {
		return errors.New("round has no answer", slog.String("game_uuid", game.UUID))
	}
	free := game.Investigation.FreeSuspects()
	if len(free) == 0 {
		return errors.New("no suspect left to eliminate", slog.String("game_uuid", game.UUID))
	}
	if err = client.EliminateSuspect(ctx, free[0].UUID, round.UUID, game.Investigation.UUID); err != nil {
		return errors.Wrap(err, "eliminate suspect")
	}
	if _, err = client.FetchCurrentGame(ctx); err != nil {
		return errors.Wrap(err, "fetch game")
	}
	if _, err = client.FetchScores(ctx); err != nil {
		return errors.Wrap(err, "fetch scores")
	}
	return nil
}

func main() {
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only the server URL to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <server-url>")
		os.Exit(1)
	}

	url := os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("url", url))

	apiClient, err := api.NewClient(url, nil, logger)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = PlayGame(ctx, apiClient, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error playing game", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
