package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
)

var lecturesCmd = &cobra.Command{
	Use:   "lectures",
	Short: "List the lecture catalogue",
	RunE:  runLectures,
}

func init() {
	rootCmd.AddCommand(lecturesCmd)
}

func runLectures(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Println(printLectures(cfg.Catalogue))
	return nil
}
