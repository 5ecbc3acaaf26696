package answers

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/api"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/models"
	"log/slog"
	neturl "net/url"
)

var ErrAnswerWait = errors.NewSentinel("wait for answer")

// Result is the outcome of a best-effort answer request. The zero value is unavailable.
type Result struct {
	answer    models.Answer
	available bool
}

func Available(answer models.Answer) Result {
	return Result{answer: answer, available: true}
}

func Unavailable() Result {
	return Result{answer: models.Answer{}, available: false}
}

// Get returns the answer and whether the service produced one. An available answer may still have empty text.
func (r Result) Get() (models.Answer, bool) {
	return r.answer, r.available
}

// Adapter asks the remote AI service for the witness answer of the current round.
type Adapter struct {
	api    *api.Client
	logger *slog.Logger
}

func NewAdapter(client *api.Client, logger *slog.Logger) *Adapter {
	return &Adapter{
		api:    client,
		logger: logger.With("source", "AnswerAdapter"),
	}
}

// Generate returns the generated or cached answer for the player's current round.
//
// The server picks the round from the player. roundUUID is used for diagnostics only. Failures are logged and
// reported as an unavailable Result; it is up to the caller to decide whether that is fatal.
func (a *Adapter) Generate(ctx context.Context, playerUUID, roundUUID string) Result {
	var answer models.Answer
	err := a.api.Get(ctx, "get_or_generate_answer", neturl.Values{"player_uuid": {playerUUID}}, &answer)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelError, "could not generate answer",
			slog.String("round_uuid", roundUUID), errors.SlogError(err))
		return Unavailable()
	}
	a.logger.LogAttrs(ctx, slog.LevelDebug, "got answer",
		slog.String("round_uuid", roundUUID), slog.String("answer_uuid", answer.UUID))
	return Available(answer)
}

// Wait blocks until the server has an answer text for roundUUID.
func (a *Adapter) Wait(ctx context.Context, roundUUID string) (string, error) {
	var text string
	if err := a.api.Get(ctx, "wait_for_answer", neturl.Values{"round_uuid": {roundUUID}}, &text); err != nil {
		return "", errors.Wrap(errors.Mark(err, ErrAnswerWait), "wait for answer", slog.String("round_uuid", roundUUID))
	}
	return text, nil
}
