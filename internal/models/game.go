package models

import (
	"bytes"
	"encoding/json"
)

// Game is the top-level session aggregate as sent by the game server.
//
// Exactly one Game is live on the client at a time. It is replaced wholesale by every server response; the only
// local enrichment is [Round.Answer].
type Game struct {
	UUID          string        `json:"uuid"`
	Investigation Investigation `json:"investigation"`
	// Level is the number of investigations played so far plus one.
	Level        int          `json:"level"`
	Score        int          `json:"Score"`
	GameOver     bool         `json:"GameOver"`
	Investigator Investigator `json:"Investigator"`
	// Model is the LLM used for generating suspect descriptions and answers.
	Model     string `json:"Model"`
	Timestamp string `json:"Timestamp"`
}

// Investigation is one scenario within a Game: a suspect roster and the rounds played against it.
type Investigation struct {
	UUID     string    `json:"uuid"`
	GameUUID string    `json:"game_uuid"`
	Suspects []Suspect `json:"suspects"`
	// Rounds are ordered from the oldest to the newest. Only the server appends.
	Rounds []Round `json:"rounds"`
	// CriminalUUID is withheld by the server while the investigation is running.
	CriminalUUID      string `json:"CriminalUUID"`
	InvestigationOver bool   `json:"InvestigationOver"`
	Timestamp         string `json:"Timestamp"`
}

// Round is one question, answer and elimination cycle.
type Round struct {
	UUID              string   `json:"uuid"`
	InvestigationUUID string   `json:"InvestigationUUID"`
	Question          Question `json:"Question"`
	AnswerUUID        string   `json:"AnswerUUID"`
	// Answer is back-filled by the client once the answer service responds.
	Answer       string        `json:"answer"`
	Eliminations []Elimination `json:"Eliminations"`
	Timestamp    string        `json:"Timestamp"`
}

type Question struct {
	UUID    string `json:"UUID"`
	English string `json:"English"`
	Czech   string `json:"Czech"`
	Polish  string `json:"Polish"`
	Topic   string `json:"Topic"`
	Level   int    `json:"Level"`
}

// Suspect elimination state is decided by the server. Free means eliminated innocent, Fled means the criminal
// was eliminated and escaped.
type Suspect struct {
	UUID      string `json:"UUID"`
	Image     string `json:"Image"`
	Free      bool   `json:"Free"`
	Fled      bool   `json:"Fled"`
	Timestamp string `json:"Timestamp"`
}

type Elimination struct {
	UUID        string `json:"UUID"`
	RoundUUID   string `json:"RoundUUID"`
	SuspectUUID string `json:"SuspectUUID"`
	Timestamp   string `json:"Timestamp"`
}

type Answer struct {
	UUID      string `json:"UUID"`
	Text      string `json:"Text"`
	Timestamp string `json:"Timestamp"`
}

// Investigator is the display name of the player running the game.
//
// The server may encode it as a plain string or as a player object; both decode into the name, falling back to the
// player UUID for anonymous players. It always encodes as a string.
type Investigator string

func (i *Investigator) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = ""
		return nil
	}
	if data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err //nolint:wrapcheck // encoding/json adds the context
		}
		*i = Investigator(name)
		return nil
	}
	var player struct {
		UUID string `json:"uuid"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &player); err != nil {
		return err //nolint:wrapcheck // encoding/json adds the context
	}
	if player.Name != "" {
		*i = Investigator(player.Name)
	} else {
		*i = Investigator(player.UUID)
	}
	return nil
}

// DefaultGame is the empty game used before the first server response.
func DefaultGame() Game {
	return Game{
		UUID:  "",
		Level: 0,
		Score: 0,
		Investigation: Investigation{
			UUID:              "",
			GameUUID:          "",
			Suspects:          []Suspect{},
			Rounds:            []Round{},
			CriminalUUID:      "",
			InvestigationOver: false,
			Timestamp:         "",
		},
		GameOver:     false,
		Investigator: "",
		Model:        "",
		Timestamp:    "",
	}
}

// LastRound returns a pointer to the newest round so that it can be enriched in place.
func (inv *Investigation) LastRound() (*Round, bool) {
	if len(inv.Rounds) == 0 {
		return nil, false
	}
	return &inv.Rounds[len(inv.Rounds)-1], true
}

// FreeSuspects returns the suspects that can still be eliminated.
func (inv *Investigation) FreeSuspects() []Suspect {
	var free []Suspect
	for _, s := range inv.Suspects {
		if !s.Free && !s.Fled {
			free = append(free, s)
		}
	}
	return free
}

// CarryAnswers copies back-filled answers from prev into rounds of g that the server sent without one.
func (g *Game) CarryAnswers(prev Game) {
	if g.Investigation.UUID != prev.Investigation.UUID {
		return
	}
	answers := make(map[string]string, len(prev.Investigation.Rounds))
	for _, r := range prev.Investigation.Rounds {
		if r.Answer != "" {
			answers[r.UUID] = r.Answer
		}
	}
	for i := range g.Investigation.Rounds {
		r := &g.Investigation.Rounds[i]
		if r.Answer == "" {
			r.Answer = answers[r.UUID]
		}
	}
}
