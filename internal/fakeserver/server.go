package fakeserver

import (
	"encoding/json"
	"fmt"
	"github.com/agajdosi/artificial-witness/internal/models"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"time"
)

// suspectsPerInvestigation is smaller than on the real server to keep fixtures readable.
const suspectsPerInvestigation = 4

// Server is an in-memory game server speaking the same query parameter protocol as the real one.
//
// It keeps one game per player, hands out deterministic identifiers and can be told to fail individual endpoints.
type Server struct {
	*httptest.Server

	logger *slog.Logger

	mu         sync.Mutex
	seq        int
	games      map[string]models.Game
	answers    map[string]string
	answerText string
	failures   map[string]int
	models     models.Models
	scores     models.FinalScores
	calls      []string
}

// NewServer starts the fake server. Call Close when done.
func NewServer(logger *slog.Logger) *Server {
	s := &Server{
		logger:     logger.With("source", "fakeserver"),
		games:      map[string]models.Game{},
		answers:    map[string]string{},
		answerText: "It was misty.",
		failures:   map[string]int{},
		models: models.Models{
			{Name: "gpt-4", Service: "OpenAI", Visual: true, Allowed: true, Historical: false},
			{Name: "claude-3-haiku", Service: "Anthropic", Visual: true, Allowed: true, Historical: false},
			{Name: "davinci-002", Service: "OpenAI", Visual: false, Allowed: false, Historical: true},
		},
		scores: models.FinalScores{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handle("status", s.status))
	mux.HandleFunc("GET /new_game", s.handle("new_game", s.newGame))
	mux.HandleFunc("GET /get_game", s.handle("get_game", s.getGame))
	mux.HandleFunc("GET /next_round", s.handle("next_round", s.nextRound))
	mux.HandleFunc("GET /next_investigation", s.handle("next_investigation", s.nextInvestigation))
	mux.HandleFunc("POST /eliminate_suspect", s.handle("eliminate_suspect", s.eliminateSuspect))
	mux.HandleFunc("GET /get_or_generate_answer", s.handle("get_or_generate_answer", s.getOrGenerateAnswer))
	mux.HandleFunc("GET /wait_for_answer", s.handle("wait_for_answer", s.waitForAnswer))
	mux.HandleFunc("GET /get_scores", s.handle("get_scores", s.getScores))
	mux.HandleFunc("POST /save_score", s.handle("save_score", s.saveScore))
	mux.HandleFunc("GET /get_models", s.handle("get_models", s.getModels))
	s.Server = httptest.NewServer(mux)
	return s
}

// SetAnswer changes the text returned by the answer endpoint. An empty text simulates a silent witness.
func (s *Server) SetAnswer(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answerText = text
}

// Fail makes endpoint respond with status until Recover is called.
func (s *Server) Fail(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = status
}

func (s *Server) Recover(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, endpoint)
}

func (s *Server) SetModels(list models.Models) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = slices.Clone(list)
}

// PutGame replaces the current game of playerUUID.
func (s *Server) PutGame(playerUUID string, game models.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[playerUUID] = clone(game)
}

// Game returns the server side view of the current game of playerUUID.
func (s *Server) Game(playerUUID string) (models.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[playerUUID]
	return clone(game), ok
}

// clone deep copies game so that callers never share slices with the server state.
func clone(game models.Game) models.Game {
	raw, err := json.Marshal(game)
	if err != nil {
		panic(err)
	}
	var c models.Game
	if err = json.Unmarshal(raw, &c); err != nil {
		panic(err)
	}
	return c
}

// Calls returns the endpoints hit so far in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

type handlerFunc func(r *http.Request) (any, int)

// handle records the call, applies injected failures and encodes the response under the lock.
func (s *Server) handle(endpoint string, next handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, endpoint)
		s.logger.LogAttrs(r.Context(), slog.LevelDebug, "request",
			slog.String("endpoint", endpoint), slog.String("query", r.URL.RawQuery))

		if status, ok := s.failures[endpoint]; ok {
			w.WriteHeader(status)
			return
		}
		body, status := next(r)
		if status != http.StatusOK || body == nil {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			s.logger.LogAttrs(r.Context(), slog.LevelError, "encode response", slog.String("error", err.Error()))
		}
	}
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (s *Server) newRound(investigationUUID string) models.Round {
	id := s.nextID("r")
	return models.Round{
		UUID:              id,
		InvestigationUUID: investigationUUID,
		Question: models.Question{
			UUID:    s.nextID("q"),
			English: "Was the weather misty?",
			Czech:   "Bylo mlhavo?",
			Polish:  "Czy było mglisto?",
			Topic:   "weather",
			Level:   1,
		},
		AnswerUUID:   "",
		Answer:       "",
		Eliminations: []models.Elimination{},
		Timestamp:    timestamp(),
	}
}

func (s *Server) newInvestigation(gameUUID string) models.Investigation {
	inv := models.Investigation{
		UUID:              s.nextID("i"),
		GameUUID:          gameUUID,
		Suspects:          make([]models.Suspect, 0, suspectsPerInvestigation),
		Rounds:            nil,
		CriminalUUID:      "",
		InvestigationOver: false,
		Timestamp:         timestamp(),
	}
	for range suspectsPerInvestigation {
		id := s.nextID("s")
		inv.Suspects = append(inv.Suspects, models.Suspect{
			UUID: id, Image: id + ".webp", Free: false, Fled: false, Timestamp: timestamp(),
		})
	}
	// The last suspect is always the criminal. It is never sent to clients.
	inv.Rounds = []models.Round{s.newRound(inv.UUID)}
	return inv
}

func criminalOf(inv models.Investigation) string {
	if len(inv.Suspects) == 0 {
		return ""
	}
	return inv.Suspects[len(inv.Suspects)-1].UUID
}

func (s *Server) status(_ *http.Request) (any, int) {
	return "OK", http.StatusOK
}

func (s *Server) newGame(r *http.Request) (any, int) {
	playerUUID := r.URL.Query().Get("player_uuid")
	model := r.URL.Query().Get("model")
	if model == "" {
		return nil, http.StatusBadRequest
	}
	gameUUID := s.nextID("g")
	game := models.Game{
		UUID:          gameUUID,
		Investigation: s.newInvestigation(gameUUID),
		Level:         1,
		Score:         0,
		GameOver:      false,
		Investigator:  models.Investigator(playerUUID),
		Model:         model,
		Timestamp:     timestamp(),
	}
	s.games[playerUUID] = game
	return game, http.StatusOK
}

func (s *Server) currentGame(r *http.Request) (models.Game, string, int) {
	playerUUID := r.URL.Query().Get("player_uuid")
	if playerUUID == "" {
		return models.Game{}, "", http.StatusBadRequest
	}
	game, ok := s.games[playerUUID]
	if !ok {
		return models.Game{}, "", http.StatusNotFound
	}
	return game, playerUUID, http.StatusOK
}

func (s *Server) getGame(r *http.Request) (any, int) {
	game, _, status := s.currentGame(r)
	if status != http.StatusOK {
		return nil, status
	}
	return game, http.StatusOK
}

func (s *Server) nextRound(r *http.Request) (any, int) {
	game, playerUUID, status := s.currentGame(r)
	if status != http.StatusOK {
		return nil, status
	}
	game.Investigation.Rounds = append(game.Investigation.Rounds, s.newRound(game.Investigation.UUID))
	s.games[playerUUID] = game
	return game, http.StatusOK
}

func (s *Server) nextInvestigation(r *http.Request) (any, int) {
	game, playerUUID, status := s.currentGame(r)
	if status != http.StatusOK {
		return nil, status
	}
	game.Investigation = s.newInvestigation(game.UUID)
	game.Level++
	s.games[playerUUID] = game
	return game, http.StatusOK
}

func (s *Server) eliminateSuspect(r *http.Request) (any, int) {
	q := r.URL.Query()
	suspectUUID, roundUUID, investigationUUID := q.Get("suspect_uuid"), q.Get("round_uuid"), q.Get("investigation_uuid")
	for playerUUID, game := range s.games {
		inv := &game.Investigation
		if inv.UUID != investigationUUID {
			continue
		}
		roundIdx := slices.IndexFunc(inv.Rounds, func(r models.Round) bool { return r.UUID == roundUUID })
		suspectIdx := slices.IndexFunc(inv.Suspects, func(s models.Suspect) bool { return s.UUID == suspectUUID })
		if roundIdx < 0 || suspectIdx < 0 {
			return nil, http.StatusNotFound
		}
		suspect := &inv.Suspects[suspectIdx]
		if suspect.Free || suspect.Fled {
			return nil, http.StatusConflict
		}
		if suspectUUID == criminalOf(*inv) {
			suspect.Fled = true
			inv.InvestigationOver = true
			game.GameOver = true
		} else {
			suspect.Free = true
			game.Score++
			if len(inv.FreeSuspects()) == 1 {
				inv.InvestigationOver = true
			}
		}
		inv.Rounds[roundIdx].Eliminations = append(inv.Rounds[roundIdx].Eliminations, models.Elimination{
			UUID: s.nextID("e"), RoundUUID: roundUUID, SuspectUUID: suspectUUID, Timestamp: timestamp(),
		})
		s.games[playerUUID] = game
		return nil, http.StatusOK
	}
	return nil, http.StatusNotFound
}

func (s *Server) getOrGenerateAnswer(r *http.Request) (any, int) {
	game, playerUUID, status := s.currentGame(r)
	if status != http.StatusOK {
		return nil, status
	}
	round, ok := game.Investigation.LastRound()
	if !ok {
		return nil, http.StatusConflict
	}
	if round.AnswerUUID == "" {
		// Stored on the round so later game fetches carry it.
		round.AnswerUUID = s.nextID("a")
		round.Answer = s.answerText
		s.answers[round.UUID] = s.answerText
		s.games[playerUUID] = game
	}
	return models.Answer{UUID: round.AnswerUUID, Text: s.answers[round.UUID], Timestamp: timestamp()}, http.StatusOK
}

func (s *Server) waitForAnswer(r *http.Request) (any, int) {
	text, ok := s.answers[r.URL.Query().Get("round_uuid")]
	if !ok {
		return nil, http.StatusNotFound
	}
	return text, http.StatusOK
}

func (s *Server) getScores(_ *http.Request) (any, int) {
	return s.scores, http.StatusOK
}

func (s *Server) saveScore(r *http.Request) (any, int) {
	name, gameUUID := r.URL.Query().Get("player_name"), r.URL.Query().Get("game_uuid")
	for _, game := range s.games {
		if game.UUID != gameUUID {
			continue
		}
		s.scores = append(s.scores, models.FinalScore{
			GameUUID: gameUUID, Score: game.Score, Investigator: name, Position: 0, Timestamp: timestamp(),
		})
		slices.SortStableFunc(s.scores, func(a, b models.FinalScore) int { return b.Score - a.Score })
		for i := range s.scores {
			s.scores[i].Position = i + 1
		}
		return nil, http.StatusOK
	}
	return nil, http.StatusNotFound
}

func (s *Server) getModels(r *http.Request) (any, int) {
	allowedOnly := r.URL.Query().Get("allowed_only") == "true"
	list := make(models.Models, 0, len(s.models))
	for _, m := range s.models {
		if allowedOnly && !m.Allowed {
			continue
		}
		list = append(list, m)
	}
	if r.URL.Query().Get("order_by") == "name" {
		slices.SortFunc(list, func(a, b models.Model) int { return strings.Compare(a.Name, b.Name) })
	}
	return list, http.StatusOK
}
