package main

import (
	"fmt"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/models"
	"github.com/spf13/cobra"
	"log/slog"
	"text/tabwriter"
	"time"
)

var (
	gameGroup = &cobra.Group{
		ID:    "game",
		Title: "Game operations",
	}
	infoGroup = &cobra.Group{
		ID:    "info",
		Title: "Players, models and scores",
	}
)

func newRootCmd(app *application) *cobra.Command {
	root := &cobra.Command{
		Use:           "witness",
		Long:          `Command line client for Artificial Witness, the investigation game played against an AI witness.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddGroup(gameGroup, infoGroup)
	root.AddCommand(
		newGameCmd(app),
		showGameCmd(app),
		nextRoundCmd(app),
		nextInvestigationCmd(app),
		eliminateCmd(app),
		answerCmd(app),
		scoresCmd(app),
		saveScoreCmd(app),
		modelsCmd(app),
		selectModelCmd(app),
		playerCmd(app),
		statusCmd(app),
	)
	return root
}

func newGameCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "new-game [model]",
		GroupID: gameGroup.ID,
		Short:   "Start a new game",
		Long:    `Starts a new game played against model. Defaults to the selected model, then to the first allowed one.`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			model, err := app.resolveModel(cmd, args)
			if err != nil {
				return app.fail(ctx, err)
			}
			if _, err = app.session.StartNewGame(ctx, model); err != nil {
				return app.fail(ctx, err)
			}
			return nil
		},
	}
}

// resolveModel picks the model from the argument, the selected model or the server's first allowed model.
func (app *application) resolveModel(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if selected := app.slots.SelectedModel.Get(); selected != nil && *selected != "" {
		return *selected, nil
	}
	available, err := app.session.ListAvailableModels(cmd.Context(), true, "")
	if err != nil {
		return "", err //nolint:wrapcheck // already annotated
	}
	if len(available) == 0 {
		return "", errors.New("no model available")
	}
	return available[0].Name, nil
}

func showGameCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "game",
		GroupID: gameGroup.ID,
		Short:   "Show the current game",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.refreshGame(cmd, true); err != nil {
				return app.fail(ctx, err)
			}
			return nil
		},
	}
}

// refreshGame fetches the server game and publishes it, keeping the answers already back-filled locally.
func (app *application) refreshGame(cmd *cobra.Command, full bool) error {
	game, err := app.session.FetchCurrentGame(cmd.Context())
	if err != nil {
		return err //nolint:wrapcheck // already annotated
	}
	game.CarryAnswers(app.slots.Game.Get())
	if full {
		app.games.Reset()
	}
	if _, err = app.slots.Game.Set(cmd.Context(), game); err != nil {
		app.logger.LogAttrs(cmd.Context(), slog.LevelWarn, "fetched game was not persisted", errors.SlogError(err))
	}
	return nil
}

func nextRoundCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "next-round",
		GroupID: gameGroup.ID,
		Short:   "Ask the witness the next question",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.session.AdvanceRound(cmd.Context()); err != nil {
				return app.fail(cmd.Context(), err)
			}
			return nil
		},
	}
}

func nextInvestigationCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "next-investigation",
		GroupID: gameGroup.ID,
		Short:   "Move on to the next investigation",
		Long:    `Moves on to the next investigation. Its first question is answered with answer or next-round.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			game, err := app.session.AdvanceInvestigation(ctx)
			if err != nil {
				return app.fail(ctx, err)
			}
			if _, err = app.slots.Game.Set(ctx, game); err != nil {
				app.logger.LogAttrs(ctx, slog.LevelWarn, "investigation was not persisted", errors.SlogError(err))
			}
			return nil
		},
	}
}

func eliminateCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "eliminate <suspect> [round] [investigation]",
		GroupID: gameGroup.ID,
		Short:   "Eliminate a suspect",
		Long:    `Eliminates suspect. The round and investigation default to the latest ones of the current game.`,
		Args:    cobra.RangeArgs(1, 3), //nolint:mnd // suspect, round and investigation
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			game := app.slots.Game.Get()
			suspectUUID, investigationUUID := args[0], game.Investigation.UUID
			var roundUUID string
			if round, ok := game.Investigation.LastRound(); ok {
				roundUUID = round.UUID
			}
			if len(args) > 1 {
				roundUUID = args[1]
			}
			if len(args) > 2 { //nolint:mnd // investigation given
				investigationUUID = args[2]
			}
			if err := app.session.EliminateSuspect(ctx, suspectUUID, roundUUID, investigationUUID); err != nil {
				return app.fail(ctx, err)
			}
			if err := app.refreshGame(cmd, false); err != nil {
				return app.fail(ctx, err)
			}
			return nil
		},
	}
}

func answerCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "answer [round]",
		GroupID: gameGroup.ID,
		Short:   "Wait for the witness to answer a round",
		Long:    `Waits until the answer of round, by default the latest one, is ready and prints it.`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			game := app.slots.Game.Get()
			var roundUUID string
			if round, ok := game.Investigation.LastRound(); ok {
				roundUUID = round.UUID
			}
			if len(args) == 1 {
				roundUUID = args[0]
			}
			if roundUUID == "" {
				return app.fail(ctx, errors.New("no round to wait for"))
			}
			text, err := app.answers.Wait(ctx, roundUUID)
			if err != nil {
				return app.fail(ctx, err)
			}
			_, _ = fmt.Fprintf(app.out, "Witness: %s\n", text)
			return nil
		},
	}
}

func scoresCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "scores",
		GroupID: infoGroup.ID,
		Short:   "Show the leaderboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scores, err := app.session.FetchScores(cmd.Context())
			if err != nil {
				return app.fail(cmd.Context(), err)
			}
			if len(scores) == 0 {
				_, _ = fmt.Fprintln(app.out, "No scores yet.")
				return nil
			}
			w := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0) //nolint:mnd // padding
			_, _ = fmt.Fprintln(w, "#\tSCORE\tINVESTIGATOR\tGAME")
			for _, s := range scores {
				_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", s.Position, s.Score, s.Investigator, s.GameUUID)
			}
			return w.Flush() //nolint:wrapcheck // stdout
		},
	}
}

func saveScoreCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "save-score [name]",
		GroupID: infoGroup.ID,
		Short:   "Save the score of the current game",
		Long:    `Saves the score of the current game under name, which also becomes the player's name.`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			player := app.players.EnsurePlayer(ctx)
			if len(args) == 1 {
				var err error
				if player, err = app.players.Rename(ctx, args[0]); err != nil {
					app.logger.LogAttrs(ctx, slog.LevelWarn, "player name was not persisted", errors.SlogError(err))
				}
			}
			if player.Name == "" {
				return app.fail(ctx, errors.New("a name is required to save the score"))
			}
			gameUUID := app.slots.Game.Get().UUID
			if gameUUID == "" {
				return app.fail(ctx, errors.New("there is no game to save"))
			}
			if err := app.session.SaveScore(ctx, player.Name, gameUUID); err != nil {
				return app.fail(ctx, err)
			}
			_, _ = fmt.Fprintf(app.out, "Saved the score of game %s as %s.\n", gameUUID, player.Name)
			return nil
		},
	}
}

func modelsCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "models",
		GroupID: infoGroup.ID,
		Short:   "List the models that can play the witness",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			all, _ := cmd.Flags().GetBool("all")
			local, _ := cmd.Flags().GetBool("local")
			orderBy, _ := cmd.Flags().GetString("order-by")

			var (
				list []models.Model
				err  error
			)
			if local {
				list, err = app.local.ListModels(ctx)
			} else {
				list, err = app.session.ListAvailableModels(ctx, !all, orderBy)
			}
			if err != nil {
				return app.fail(ctx, err)
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(app.out, "No models available.")
				return nil
			}

			var selected string
			if s := app.slots.SelectedModel.Get(); s != nil {
				selected = *s
			}
			w := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0) //nolint:mnd // padding
			_, _ = fmt.Fprintln(w, "\tNAME\tSERVICE\tVISUAL\tALLOWED")
			for _, m := range list {
				mark := ""
				if m.Name == selected {
					mark = "*"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", mark, m.Name, m.Service, m.Visual, m.Allowed)
			}
			return w.Flush() //nolint:wrapcheck // stdout
		},
	}
	cmd.Flags().Bool("all", false, "include models that are not allowed to play")
	cmd.Flags().String("order-by", "", "order passed to the server, e.g. name")
	cmd.Flags().Bool("local", false, "list the models of the local OpenAI compatible service instead")
	return cmd
}

func selectModelCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "select-model <name>",
		GroupID: infoGroup.ID,
		Short:   "Select the default model for new games",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := app.slots.SelectedModel.Set(cmd.Context(), &name); err != nil {
				return errors.Wrap(err, "select model", slog.String("model", name))
			}
			_, _ = fmt.Fprintf(app.out, "Selected model %s.\n", name)
			return nil
		},
	}
}

func playerCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     "player",
		GroupID: infoGroup.ID,
		Short:   "Show the local player identity",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			player := app.players.EnsurePlayer(cmd.Context())
			_, _ = fmt.Fprintf(app.out, "UUID: %s\nName: %s\n", player.UUID, player.Name)
		},
	}
}

func statusCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		GroupID: infoGroup.ID,
		Short:   "Check that the game server is reachable",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if err := app.api.WaitForReady(cmd.Context(), timeout); err != nil {
				return app.fail(cmd.Context(), err)
			}
			_, _ = fmt.Fprintf(app.out, "Game server at %s is ready.\n", app.cfg.APIURL)
			return nil
		},
	}
	cmd.Flags().Duration("timeout", 5*time.Second, "how long to wait for the server") //nolint:mnd // 5 seconds
	return cmd
}
