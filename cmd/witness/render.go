package main

import (
	"fmt"
	"github.com/agajdosi/artificial-witness/internal/models"
	"io"
	"strings"
	"sync"
)

// gameRenderer prints what changed between consecutive game snapshots.
type gameRenderer struct {
	mu sync.Mutex
	w  io.Writer

	primed            bool
	gameUUID          string
	investigationUUID string
	score             int
	suspects          string
	questions         map[string]bool
	answers           map[string]bool
	investigationOver bool
	gameOver          bool
}

func newGameRenderer(w io.Writer) *gameRenderer {
	return &gameRenderer{w: w, questions: map[string]bool{}, answers: map[string]bool{}}
}

// observe is the game slot subscriber. The value delivered on subscription is what the previous run already showed.
func (r *gameRenderer) observe(game models.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.primed {
		r.primed = true
		r.render(io.Discard, game)
		return
	}
	r.render(r.w, game)
}

// Reset makes the next snapshot render in full.
func (r *gameRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gameUUID = ""
	r.investigationUUID = ""
}

func (r *gameRenderer) render(w io.Writer, game models.Game) {
	if game.UUID == "" {
		return
	}
	inv := game.Investigation
	if game.UUID != r.gameUUID || inv.UUID != r.investigationUUID {
		_, _ = fmt.Fprintf(w, "Game %s with %s, level %d, score %d\n", game.UUID, game.Model, game.Level, game.Score)
		_, _ = fmt.Fprintf(w, "Investigation %s\n", inv.UUID)
		r.gameUUID = game.UUID
		r.investigationUUID = inv.UUID
		r.score = game.Score
		r.suspects = ""
		r.questions = map[string]bool{}
		r.answers = map[string]bool{}
		r.investigationOver = false
		r.gameOver = false
	}
	if line := suspectLine(inv.Suspects); line != r.suspects {
		_, _ = fmt.Fprintf(w, "Suspects: %s\n", line)
		r.suspects = line
	}
	if game.Score != r.score {
		_, _ = fmt.Fprintf(w, "Score: %d\n", game.Score)
		r.score = game.Score
	}
	for i, round := range inv.Rounds {
		if !r.questions[round.UUID] {
			_, _ = fmt.Fprintf(w, "Round %d [%s]: %s\n", i+1, round.UUID, round.Question.English)
			r.questions[round.UUID] = true
		}
		if round.Answer != "" && !r.answers[round.UUID] {
			_, _ = fmt.Fprintf(w, "  Witness: %s\n", round.Answer)
			r.answers[round.UUID] = true
		}
	}
	if inv.InvestigationOver && !r.investigationOver {
		_, _ = fmt.Fprintln(w, "Investigation over.")
		r.investigationOver = true
	}
	if game.GameOver && !r.gameOver {
		_, _ = fmt.Fprintf(w, "Game over, final score %d.\n", game.Score)
		r.gameOver = true
	}
}

func suspectLine(suspects []models.Suspect) string {
	parts := make([]string, 0, len(suspects))
	for _, s := range suspects {
		switch {
		case s.Fled:
			parts = append(parts, s.UUID+"(fled)")
		case s.Free:
			parts = append(parts, s.UUID+"(free)")
		default:
			parts = append(parts, s.UUID)
		}
	}
	return strings.Join(parts, " ")
}

// newErrorRenderer returns the error slot subscriber.
func newErrorRenderer(w io.Writer) func(models.ErrorMessage) {
	return func(msg models.ErrorMessage) {
		if msg.Empty() {
			return
		}
		_, _ = fmt.Fprintf(w, "%s: %s. %s\n", msg.Severity, msg.Title, msg.Message)
		if len(msg.Actions) > 0 {
			_, _ = fmt.Fprintf(w, "Try: %s\n", strings.Join(msg.Actions, ", "))
		}
	}
}
