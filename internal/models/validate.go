package models

import (
	"fmt"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"log/slog"
)

var ErrInvalid = errors.NewSentinel("invalid payload")

// Validator is implemented by payloads that can check their own structure after decoding.
type Validator interface {
	Validate() error
}

func invalid(field string, attrs ...slog.Attr) error {
	return errors.Wrap(ErrInvalid, fmt.Sprintf("%s is required", field), attrs...)
}

// Validate checks the fields the client relies on. Everything else is displayed as is.
func (g Game) Validate() error {
	if g.UUID == "" {
		return invalid("game uuid")
	}
	if g.Investigation.UUID == "" {
		return invalid("investigation uuid", slog.String("game_uuid", g.UUID))
	}
	for i, s := range g.Investigation.Suspects {
		if s.UUID == "" {
			return invalid("suspect UUID", slog.Int("index", i))
		}
	}
	for i, r := range g.Investigation.Rounds {
		if r.UUID == "" {
			return invalid("round uuid", slog.Int("index", i))
		}
		for j, e := range r.Eliminations {
			if e.SuspectUUID == "" {
				return invalid("elimination SuspectUUID", slog.String("round_uuid", r.UUID), slog.Int("index", j))
			}
		}
	}
	return nil
}

// Models is the list returned by the get_models endpoint.
type Models []Model

func (ms Models) Validate() error {
	for i, m := range ms {
		if m.Name == "" {
			return invalid("model Name", slog.Int("index", i))
		}
	}
	return nil
}

// FinalScores is the leaderboard returned by the get_scores endpoint.
type FinalScores []FinalScore

func (fs FinalScores) Validate() error {
	for i, s := range fs {
		if s.GameUUID == "" {
			return invalid("score GameUUID", slog.Int("index", i))
		}
	}
	return nil
}
