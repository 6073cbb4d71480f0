package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantrunner/HQSAgent/internal/env"
)

var rootCmd = &cobra.Command{
	Use:   "hqsagent",
	Short: "Submit circuits to a remote quantum job API",
	Long:  "hqsagent submits OpenQASM programs to a Honeywell Quantum Services-style job API, polls until completion and prints the measured samples. Credentials are refreshed transparently and persisted in the user config document.",
}

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	rootCmd.AddCommand(
		newRunCmd(),
		newLoginCmd(),
		newJobsCmd(),
	)
	_ = env.Ensure()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("hqsagent command failed")
	}
}
