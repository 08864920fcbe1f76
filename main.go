package main

import (
	"context"
	"os"

	"github.com/cameroncuttingedge/place/cli"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	InitializeLogger()
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("place exited")
	}
}

func InitializeLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	loggingEnabled := os.Getenv("LOGGING")
	if loggingEnabled != "true" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		path := os.Getenv("LOG_FILE")
		if path == "" {
			path = "place.log"
		}
		runLogFile, err := os.OpenFile(
			path,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY,
			0664,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open log file")
		}
		multi := zerolog.MultiLevelWriter(runLogFile, os.Stdout)
		log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
