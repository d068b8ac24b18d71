package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that loads wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables used by ${VAR} expansion in the
// config file. Existing process environment variables are not overwritten.
func loadEnvFile() {
	for _, name := range envFiles {
		if err := godotenv.Load(name); err == nil {
			slog.Debug("Loaded environment variables", "file", name)
			return
		}
	}
}
