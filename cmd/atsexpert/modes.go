package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsexpert/internal/prompt"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List analysis modes",
	Long:  "Prints every analysis mode with its title and accepted aliases.",
	RunE:  runModes,
}

func init() {
	rootCmd.AddCommand(modesCmd)
}

func runModes(cmd *cobra.Command, args []string) error {
	fmt.Printf("%-10s %-25s %s\n", "Mode", "Title", "Aliases")
	fmt.Println(strings.Repeat("─", 60))

	for _, m := range prompt.Modes() {
		fmt.Printf("%-10s %-25s %s\n", m, m.Title(), strings.Join(m.Aliases(), ", "))
	}
	return nil
}
