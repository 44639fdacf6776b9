package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func (a *app) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent catalog loads from the ingestion journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.Journal.Enabled {
				return errors.New("the ingestion journal is disabled")
			}

			j, err := openJournal(cmd.Context(), a.cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, "No loads recorded yet.")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("LOADED AT", "SOURCE", "RECORDS", "DETAIL")
			for _, e := range entries {
				detail := e.Notice
				if e.LiveError != "" {
					detail = e.LiveError
				}
				t.Row(e.LoadedAt.Local().Format("2006-01-02 15:04:05"), string(e.Source), strconv.Itoa(e.Records), detail)
			}
			fmt.Fprintln(a.out, t.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of loads to show (0 for all)")
	return cmd
}
