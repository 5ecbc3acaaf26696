package session

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/answers"
	"github.com/agajdosi/artificial-witness/internal/api"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/logging"
	"github.com/agajdosi/artificial-witness/internal/models"
	"log/slog"
	neturl "net/url"
	"strconv"
)

// GameSlot is the client visible game snapshot.
type GameSlot interface {
	Snapshot() (models.Game, uint64)
	Set(ctx context.Context, game models.Game) (uint64, error)
	CompareAndSet(ctx context.Context, version uint64, game models.Game) (uint64, bool, error)
}

// PlayerSource provides the identity the server scopes games to.
type PlayerSource interface {
	EnsurePlayer(ctx context.Context) models.Player
}

// AnswerGenerator produces the witness answer for the current round of a player.
type AnswerGenerator interface {
	Generate(ctx context.Context, playerUUID, roundUUID string) answers.Result
}

// Client drives the game session against the remote server and keeps the game slot in sync.
//
// The game slot only ever holds the last game returned by the server or that game with the answer of its last round
// back-filled. Calls are not serialized against each other; an answer back-fill never overwrites a newer snapshot.
type Client struct {
	api     *api.Client
	game    GameSlot
	players PlayerSource
	answers AnswerGenerator
	logger  *slog.Logger
}

func NewClient(
	apiClient *api.Client,
	game GameSlot,
	players PlayerSource,
	answerGenerator AnswerGenerator,
	logger *slog.Logger,
) *Client {
	return &Client{
		api:     apiClient,
		game:    game,
		players: players,
		answers: answerGenerator,
		logger:  logger.With("source", "SessionClient"),
	}
}

func (c *Client) player(ctx context.Context) (context.Context, models.Player) {
	player := c.players.EnsurePlayer(ctx)
	return logging.WithAttrs(ctx, slog.String("player_uuid", player.UUID)), player
}

// StartNewGame creates a new game with model, publishes it and back-fills the answer of its first round.
//
// On ErrAnswerMissing the returned game is the published one without the answer.
func (c *Client) StartNewGame(ctx context.Context, model string) (models.Game, error) {
	ctx, player := c.player(ctx)
	var game models.Game
	query := neturl.Values{"player_uuid": {player.UUID}, "model": {model}}
	if err := c.api.Get(ctx, "new_game", query, &game); err != nil {
		return models.Game{}, errors.Wrap(errors.Mark(err, ErrSessionCreation), "start new game",
			slog.String("model", model))
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "started new game",
		slog.String("game_uuid", game.UUID), slog.String("model", model))

	version := c.publish(ctx, game)
	return c.backfill(ctx, player, game, version)
}

// FetchCurrentGame returns the server side game of the player. The game slot is left to the caller.
func (c *Client) FetchCurrentGame(ctx context.Context) (models.Game, error) {
	ctx, player := c.player(ctx)
	var game models.Game
	if err := c.api.Get(ctx, "get_game", neturl.Values{"player_uuid": {player.UUID}}, &game); err != nil {
		return models.Game{}, errors.Wrap(errors.Mark(err, ErrFetch), "fetch current game")
	}
	return game, nil
}

// AdvanceRound requests the next round and publishes it right away, then back-fills and republishes its answer.
func (c *Client) AdvanceRound(ctx context.Context) error {
	ctx, player := c.player(ctx)
	var game models.Game
	if err := c.api.Get(ctx, "next_round", neturl.Values{"player_uuid": {player.UUID}}, &game); err != nil {
		return errors.Wrap(errors.Mark(err, ErrRoundAdvance), "advance round")
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "advanced round",
		slog.String("game_uuid", game.UUID), slog.Int("rounds", len(game.Investigation.Rounds)))

	version := c.publish(ctx, game)
	_, err := c.backfill(ctx, player, game, version)
	return err
}

// AdvanceInvestigation requests the next investigation. Unlike the round operations it neither publishes the
// returned game nor back-fills an answer; the caller decides what to do with it.
func (c *Client) AdvanceInvestigation(ctx context.Context) (models.Game, error) {
	ctx, player := c.player(ctx)
	var game models.Game
	if err := c.api.Get(ctx, "next_investigation", neturl.Values{"player_uuid": {player.UUID}}, &game); err != nil {
		return models.Game{}, errors.Wrap(errors.Mark(err, ErrInvestigationAdvance), "advance investigation")
	}
	return game, nil
}

// EliminateSuspect asks the server to eliminate a suspect. The outcome shows up in the next fetched game.
func (c *Client) EliminateSuspect(ctx context.Context, suspectUUID, roundUUID, investigationUUID string) error {
	query := neturl.Values{
		"suspect_uuid":       {suspectUUID},
		"round_uuid":         {roundUUID},
		"investigation_uuid": {investigationUUID},
	}
	if err := c.api.Post(ctx, "eliminate_suspect", query, nil); err != nil {
		return errors.Wrap(errors.Mark(err, ErrElimination), "eliminate suspect",
			slog.String("suspect_uuid", suspectUUID),
			slog.String("round_uuid", roundUUID),
			slog.String("investigation_uuid", investigationUUID))
	}
	return nil
}

// FetchScores returns the leaderboard.
func (c *Client) FetchScores(ctx context.Context) ([]models.FinalScore, error) {
	var scores models.FinalScores
	if err := c.api.Get(ctx, "get_scores", nil, &scores); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrScoresFetch), "fetch scores")
	}
	if scores == nil {
		scores = models.FinalScores{}
	}
	return scores, nil
}

func (c *Client) SaveScore(ctx context.Context, playerName, gameUUID string) error {
	query := neturl.Values{"player_name": {playerName}, "game_uuid": {gameUUID}}
	if err := c.api.Post(ctx, "save_score", query, nil); err != nil {
		return errors.Wrap(errors.Mark(err, ErrScoreSave), "save score", slog.String("game_uuid", gameUUID))
	}
	return nil
}

// ListAvailableModels returns the models the server offers. orderBy is passed through, empty keeps server order.
func (c *Client) ListAvailableModels(ctx context.Context, allowedOnly bool, orderBy string) ([]models.Model, error) {
	var list models.Models
	query := neturl.Values{"allowed_only": {strconv.FormatBool(allowedOnly)}, "order_by": {orderBy}}
	if err := c.api.Get(ctx, "get_models", query, &list); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrModelsFetch), "list available models")
	}
	if list == nil {
		list = models.Models{}
	}
	return list, nil
}

// publish writes game to the slot and returns the version of the write. Losing durability is not fatal for the
// session, the snapshot is visible regardless.
func (c *Client) publish(ctx context.Context, game models.Game) uint64 {
	version, err := c.game.Set(ctx, game)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "published game was not persisted", errors.SlogError(err))
	}
	return version
}

// backfill asks for the answer of the last round of game and republishes game with it, unless the slot moved past
// version in the meantime.
func (c *Client) backfill(
	ctx context.Context,
	player models.Player,
	game models.Game,
	version uint64,
) (models.Game, error) {
	round, ok := game.Investigation.LastRound()
	if !ok {
		return game, errors.Wrap(ErrRoundMissing, "back-fill answer", slog.String("game_uuid", game.UUID))
	}
	ctx = logging.WithAttrs(ctx, slog.String("round_uuid", round.UUID))

	answer, ok := c.answers.Generate(ctx, player.UUID, round.UUID).Get()
	if !ok || answer.Text == "" {
		return game, errors.Wrap(ErrAnswerMissing, "back-fill answer", slog.String("round_uuid", round.UUID))
	}
	round.Answer = answer.Text

	current, applied, err := c.game.CompareAndSet(ctx, version, game)
	switch {
	case err != nil:
		c.logger.LogAttrs(ctx, slog.LevelWarn, "back-filled game was not persisted", errors.SlogError(err))
	case !applied:
		c.logger.LogAttrs(ctx, slog.LevelInfo, "dropped stale answer, game changed meanwhile",
			slog.Uint64("version", version), slog.Uint64("current", current))
	default:
		c.logger.LogAttrs(ctx, slog.LevelDebug, "back-filled answer", slog.String("answer_uuid", answer.UUID))
	}
	return game, nil
}
