package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quantrunner/HQSAgent/internal/storage"
)

func newJobsCmd() *cobra.Command {
	var flagLimit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List locally mirrored job submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := storage.Default()
			if err != nil {
				return err
			}
			entries, err := mirror.ListRecent(flagLimit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tMACHINE\tSHOTS\tSTATUS\tRESULTS\tUPDATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
					e.JobID, e.Machine, e.Shots, e.Status, e.ResultCount,
					e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum entries to list")

	return cmd
}
