package models

import "strings"

// Player identifies this client installation towards the game server.
type Player struct {
	UUID string `json:"UUID"`
	Name string `json:"Name"`
}

// Valid reports whether the player carries a stable identifier.
func (p Player) Valid() bool {
	return strings.TrimSpace(p.UUID) != ""
}

// FinalScore is a read-only leaderboard entry.
type FinalScore struct {
	GameUUID string `json:"GameUUID"`
	Score    int    `json:"Score"`
	// Investigator is the name the player saved the score under.
	Investigator string `json:"Investigator"`
	Position     int    `json:"Position"`
	Timestamp    string `json:"Timestamp"`
}

// Model describes an AI backend that can play the witness.
type Model struct {
	Name string `json:"Name"`
	// Service provides the model, e.g. OpenAI, Anthropic or DeepSeek.
	Service    string `json:"Service"`
	Visual     bool   `json:"Visual"`
	Allowed    bool   `json:"Allowed"`
	Historical bool   `json:"Historical"`
}

// Service describes the provider behind a Model. The server never sends tokens to clients.
type Service struct {
	Name string `json:"Name"`
	// APIStyle is the style of the API, e.g. openai or anthropic.
	APIStyle string `json:"API_style"`
	// Type is API or local.
	Type   string `json:"Type"`
	URL    string `json:"URL"`
	Token  string `json:"Token"`
	Active bool   `json:"Active"`
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ErrorMessage is the transient UI signal describing a failure.
type ErrorMessage struct {
	Severity Severity `json:"Severity"`
	Title    string   `json:"Title"`
	Message  string   `json:"Message"`
	Actions  []string `json:"Actions"`
}

// Empty reports whether there is nothing to show.
func (m ErrorMessage) Empty() bool {
	return m.Title == "" && m.Message == ""
}

// DefaultErrorMessage is the cleared state of the error slot.
func DefaultErrorMessage() ErrorMessage {
	return ErrorMessage{Severity: "", Title: "", Message: "", Actions: []string{}}
}
