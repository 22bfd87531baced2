package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwkeyer/internal/config"
	"github.com/ColonelBlimp/cwkeyer/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently sent transcripts",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	store, err := history.Open(settings.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return printHistory(cmd.OutOrStdout(), entries)
}

// printHistory writes entries oldest first.
func printHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("no transcripts recorded"))
		return err
	}

	if _, err := fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-19s  %3s  %-24s  %s", "TIME", "WPM", "TEXT", "TRANSCRIPT"))); err != nil {
		return err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		_, err := fmt.Fprintf(w, "%-19s  %3d  %-24s  %s\n",
			e.At.Local().Format("2006-01-02 15:04:05"), e.WPM, e.Text, dimStyle.Render(e.Transcript))
		if err != nil {
			return err
		}
	}
	return nil
}
