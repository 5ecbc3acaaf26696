package config

import (
	"github.com/agajdosi/artificial-witness/internal/envstruct"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/joho/godotenv"
	"io/fs"
	"log/slog"
)

// Config holds the client configuration read from the environment.
type Config struct {
	// APIURL is the base URL of the remote game server.
	APIURL string `env:"WITNESS_API_URL" envDefault:"http://localhost:8080"`
	// StatePath is the SQLite file holding the persisted slots. Use ":memory:" for throwaway state.
	StatePath string `env:"WITNESS_STATE_PATH" envDefault:"./witness.sqlite"`
	LogLevel  slog.Level `env:"WITNESS_LOG_LEVEL" envDefault:"warn"`
	// LocalModelsURL points to an OpenAI compatible API such as Ollama's /v1.
	LocalModelsURL     string `env:"WITNESS_LOCAL_MODELS_URL" envDefault:"http://localhost:11434/v1"`
	LocalModelsService string `env:"WITNESS_LOCAL_MODELS_SERVICE" envDefault:"ollama"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY" envDefault:""`
}

// Load reads the optional .env files and populates Config through lookupEnv.
//
// The .env files are loaded into the process environment, so they are only visible when lookupEnv is backed by it.
func Load(lookupEnv func(string) (string, bool), dotenvFiles ...string) (Config, error) {
	var cfg Config
	if err := loadDotenv(dotenvFiles...); err != nil {
		return cfg, err
	}
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return cfg, errors.Wrap(err, "populate config")
	}
	return cfg, nil
}

func loadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrap(err, "load dotenv", slog.String("file", file))
		}
	}
	return nil
}
