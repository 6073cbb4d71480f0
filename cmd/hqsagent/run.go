package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	hqsagent "github.com/quantrunner/HQSAgent"
)

func newRunCmd() *cobra.Command {
	var (
		flagMachine    string
		flagWires      int
		flagShots      int
		flagRetryDelay time.Duration
		flagUser       string
		flagBaseURL    string
		flagRaw        bool
	)

	cmd := &cobra.Command{
		Use:   "run <program.qasm>",
		Short: "Submit an OpenQASM program and print its samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read program %s failed: %w", args[0], err)
			}
			dev, err := hqsagent.NewDevice(hqsagent.DeviceConfig{
				Machine:    flagMachine,
				Wires:      flagWires,
				Shots:      flagShots,
				RetryDelay: flagRetryDelay,
				User:       flagUser,
				BaseURL:    flagBaseURL,
			})
			if err != nil {
				return err
			}
			log.Info().
				Str("machine", flagMachine).
				Int("wires", flagWires).
				Int("shots", flagShots).
				Msg("executing circuit")

			bitstrings, err := dev.Execute(cmd.Context(), string(program))
			if err != nil {
				return err
			}
			if flagRaw {
				fmt.Println(strings.Join(bitstrings, "\n"))
				return nil
			}
			for _, row := range dev.LastSamples() {
				parts := make([]string, len(row))
				for i, v := range row {
					parts[i] = fmt.Sprintf("%d", v)
				}
				fmt.Println(strings.Join(parts, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagMachine, "machine", "", "Remote machine to execute on (required)")
	cmd.Flags().IntVar(&flagWires, "wires", 0, "Number of wires in the circuit (required)")
	cmd.Flags().IntVar(&flagShots, "shots", hqsagent.DefaultShots, "Number of circuit repetitions")
	cmd.Flags().DurationVar(&flagRetryDelay, "retry-delay", hqsagent.DefaultRetryDelay, "Delay between status polls")
	cmd.Flags().StringVar(&flagUser, "user", "", "Account identity overriding $"+hqsagent.EnvUser)
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "API endpoint overriding $"+hqsagent.EnvBaseURL)
	cmd.Flags().BoolVar(&flagRaw, "raw", false, "Print raw bitstrings instead of the sample matrix")
	_ = cmd.MarkFlagRequired("machine")
	_ = cmd.MarkFlagRequired("wires")

	return cmd
}
