package models_test

import (
	"encoding/json"
	"github.com/agajdosi/artificial-witness/internal/models"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestInvestigatorUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want models.Investigator
	}{
		{name: "string", data: `"Dupin"`, want: "Dupin"},
		{name: "player object", data: `{"uuid":"p1","name":"Dupin"}`, want: "Dupin"},
		{name: "anonymous player object", data: `{"uuid":"p1","name":""}`, want: "p1"},
		{name: "null", data: `null`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.Investigator
			require.NoError(t, json.Unmarshal([]byte(tt.data), &got))
			require.Equal(t, tt.want, got)
		})
	}

	var bad models.Investigator
	require.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestGameDecodesServerPayload(t *testing.T) {
	payload := `{
		"uuid": "g1",
		"Score": 3,
		"Investigator": {"uuid": "p1", "name": "Dupin"},
		"Timestamp": "2024-10-01 10:00:00",
		"Model": "gpt-4",
		"investigation": {
			"uuid": "i1",
			"game_uuid": "g1",
			"suspects": [{"UUID": "s1", "Image": "s1.webp", "Free": false, "Fled": false, "Timestamp": ""}],
			"rounds": [{"uuid": "r1", "InvestigationUUID": "i1", "Question": {"UUID": "q1", "English": "Is it misty?", "Level": 1}, "AnswerUUID": "", "answer": "", "Eliminations": null, "Timestamp": ""}],
			"InvestigationOver": false,
			"Timestamp": ""
		},
		"level": 1,
		"GameOver": false
	}`
	var game models.Game
	require.NoError(t, json.Unmarshal([]byte(payload), &game))
	require.NoError(t, game.Validate())
	require.Equal(t, models.Investigator("Dupin"), game.Investigator)
	require.Empty(t, game.Investigation.CriminalUUID)

	last, ok := game.Investigation.LastRound()
	require.True(t, ok)
	require.Equal(t, "Is it misty?", last.Question.English)
	last.Answer = "It was misty."
	require.Equal(t, "It was misty.", game.Investigation.Rounds[0].Answer, "LastRound must point into the slice")
}

func TestGameValidate(t *testing.T) {
	valid := func() models.Game {
		g := models.DefaultGame()
		g.UUID = "g1"
		g.Investigation.UUID = "i1"
		g.Investigation.Suspects = []models.Suspect{{UUID: "s1"}}
		g.Investigation.Rounds = []models.Round{{UUID: "r1", Eliminations: []models.Elimination{{SuspectUUID: "s1"}}}}
		return g
	}
	tests := []struct {
		name    string
		mutate  func(g *models.Game)
		wantErr bool
	}{
		{name: "valid", mutate: func(_ *models.Game) {}, wantErr: false},
		{name: "missing game uuid", mutate: func(g *models.Game) { g.UUID = "" }, wantErr: true},
		{name: "missing investigation", mutate: func(g *models.Game) { g.Investigation.UUID = "" }, wantErr: true},
		{name: "anonymous suspect", mutate: func(g *models.Game) { g.Investigation.Suspects[0].UUID = "" }, wantErr: true},
		{name: "anonymous round", mutate: func(g *models.Game) { g.Investigation.Rounds[0].UUID = "" }, wantErr: true},
		{
			name:    "elimination without suspect",
			mutate:  func(g *models.Game) { g.Investigation.Rounds[0].Eliminations[0].SuspectUUID = "" },
			wantErr: true,
		},
		{name: "no rounds yet", mutate: func(g *models.Game) { g.Investigation.Rounds = nil }, wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid()
			tt.mutate(&g)
			err := g.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrInvalid)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFreeSuspects(t *testing.T) {
	inv := models.Investigation{Suspects: []models.Suspect{
		{UUID: "s1"},
		{UUID: "s2", Free: true},
		{UUID: "s3", Fled: true},
		{UUID: "s4"},
	}}
	free := inv.FreeSuspects()
	require.Len(t, free, 2)
	require.Equal(t, "s1", free[0].UUID)
	require.Equal(t, "s4", free[1].UUID)
}

func TestListValidate(t *testing.T) {
	require.NoError(t, models.Models{}.Validate())
	require.ErrorIs(t, models.Models{{Name: ""}}.Validate(), models.ErrInvalid)
	require.NoError(t, models.FinalScores{{GameUUID: "g1", Score: 4}}.Validate())
	require.ErrorIs(t, models.FinalScores{{Score: 4}}.Validate(), models.ErrInvalid)
}

func TestCarryAnswers(t *testing.T) {
	prev := models.DefaultGame()
	prev.Investigation.UUID = "i1"
	prev.Investigation.Rounds = []models.Round{{UUID: "r1", Answer: "It was misty."}, {UUID: "r2", Answer: ""}}

	fetched := models.DefaultGame()
	fetched.Investigation.UUID = "i1"
	fetched.Investigation.Rounds = []models.Round{{UUID: "r1"}, {UUID: "r2", Answer: "Sunny."}, {UUID: "r3"}}
	fetched.CarryAnswers(prev)
	require.Equal(t, "It was misty.", fetched.Investigation.Rounds[0].Answer)
	require.Equal(t, "Sunny.", fetched.Investigation.Rounds[1].Answer)
	require.Empty(t, fetched.Investigation.Rounds[2].Answer)

	other := models.DefaultGame()
	other.Investigation.UUID = "i2"
	other.Investigation.Rounds = []models.Round{{UUID: "r1"}}
	other.CarryAnswers(prev)
	require.Empty(t, other.Investigation.Rounds[0].Answer)
}
