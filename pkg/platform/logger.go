package platform

import (
	"os"

	"github.com/rs/zerolog"
)

// InitLogger configures the process logger: JSON to stdout in
// production, console writer in development.
func InitLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if GetEnv("ENV", "") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}
