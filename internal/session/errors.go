package session

import (
	"context"
	"fmt"
	"github.com/agajdosi/artificial-witness/internal/api"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/models"
)

var (
	ErrSessionCreation      = errors.NewSentinel("session creation failed")
	ErrFetch                = errors.NewSentinel("fetch game failed")
	ErrRoundAdvance         = errors.NewSentinel("round advance failed")
	ErrAnswerMissing        = errors.NewSentinel("answer missing")
	ErrInvestigationAdvance = errors.NewSentinel("investigation advance failed")
	ErrElimination          = errors.NewSentinel("elimination failed")
	ErrScoresFetch          = errors.NewSentinel("fetch scores failed")
	ErrScoreSave            = errors.NewSentinel("save score failed")
	ErrModelsFetch          = errors.NewSentinel("fetch models failed")

	// ErrRoundMissing also matches ErrAnswerMissing: without a round there is nothing to answer.
	ErrRoundMissing = errors.Mark(errors.NewSentinel("investigation has no rounds"), ErrAnswerMissing)
)

type errorMessage struct {
	sentinel error
	severity models.Severity
	title    string
	message  string
	actions  []string
}

// errorMessages is ordered from the most to the least specific sentinel.
var errorMessages = []errorMessage{
	{ErrRoundMissing, models.SeverityWarning, "No question yet",
		"The investigation has no round the witness could answer.", []string{"next-round"}},
	{ErrAnswerMissing, models.SeverityWarning, "The witness is silent",
		"The answer could not be generated. The round is still playable.", []string{"game", "next-round"}},
	{ErrSessionCreation, models.SeverityError, "Could not start a new game",
		"The game server did not create a new game.", []string{"new-game", "status"}},
	{ErrFetch, models.SeverityError, "Could not load the game",
		"The game server did not return the current game.", []string{"game", "new-game"}},
	{ErrRoundAdvance, models.SeverityError, "Could not start the next round",
		"The game server did not create a new round.", []string{"next-round"}},
	{ErrInvestigationAdvance, models.SeverityError, "Could not start the next investigation",
		"The game server did not create a new investigation.", []string{"next-investigation"}},
	{ErrElimination, models.SeverityError, "Could not eliminate the suspect",
		"The game server did not accept the elimination.", []string{"game", "eliminate"}},
	{ErrScoresFetch, models.SeverityError, "Could not load the scores",
		"The game server did not return the leaderboard.", []string{"scores"}},
	{ErrScoreSave, models.SeverityError, "Could not save the score",
		"The game server did not save the score.", []string{"save-score"}},
	{ErrModelsFetch, models.SeverityError, "Could not load the models",
		"The game server did not return the list of models.", []string{"models"}},
}

// ErrorMessageFor converts err into a message for the transient error slot. A nil error clears the slot.
func ErrorMessageFor(err error) models.ErrorMessage {
	if err == nil {
		return models.DefaultErrorMessage()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorMessage{
			Severity: models.SeverityInfo,
			Title:    "Cancelled",
			Message:  "The request was cancelled before the server answered.",
			Actions:  []string{},
		}
	}

	msg := models.ErrorMessage{
		Severity: models.SeverityError,
		Title:    "Something went wrong",
		Message:  err.Error(),
		Actions:  []string{"status"},
	}
	for _, m := range errorMessages {
		if errors.Is(err, m.sentinel) {
			msg = models.ErrorMessage{
				Severity: m.severity,
				Title:    m.title,
				Message:  m.message,
				Actions:  append([]string{}, m.actions...),
			}
			break
		}
	}

	switch status, ok := api.StatusCode(err); {
	case ok:
		msg.Message = fmt.Sprintf("%s The server responded with status %d.", msg.Message, status)
	case errors.Is(err, api.ErrSchema):
		msg.Message += " The server response was malformed."
	}
	return msg
}
