package cmd

import (
	"fmt"
	"os"

	"sync-photo-client/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appVersion = "0.3.0"

const usage = `usage: sync-photo-client <command> [args]

commands:
  serve                          run the reference backend
  signup <email> <password> [username]
  login <email> <password>
  logout
  whoami
  profile <username>
  groups
  create <name> [description]
  join <code>
  photos <group>
  feed
  like <group> <photo>
  upload <group> <file> [capturedAt]
  feedback <message>
  watch                          print realtime group events`

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	command, args := os.Args[1], os.Args[2:]
	if command == "serve" {
		serve(cfg)
		return
	}

	run, ok := clientCommands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", command, usage)
		os.Exit(2)
	}
	os.Exit(runClient(cfg, run, args))
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
