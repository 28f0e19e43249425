package main

import (
	"fmt"

	"matchwise/backend/internal/matching"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <availability>",
	Short: "Show how an availability string is read",
	Long: `Parse an availability string such as "Mon 9-12,Tue 14-16" and print
the slots that survive. Malformed tokens are dropped silently, the same way
listings are read during matching.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slots := matching.ParseAvailability(args[0])
		out := cmd.OutOrStdout()
		if len(slots) == 0 {
			fmt.Fprintln(out, "no valid slots")
			return
		}
		for _, slot := range slots {
			fmt.Fprintf(out, "%s (%dh)\n", slot, slot.EndHour-slot.StartHour)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
