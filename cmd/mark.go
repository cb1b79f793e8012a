package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/attendance"
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Mark one student present manually",
	Long: `Send a single attendance mark to the backend and print how the
response was classified.

Example:
  rollcall mark --roll 21 --name Alice --lecture COA --slot 2`,
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)

	markCmd.Flags().String("roll", "", "Roll number (required)")
	markCmd.Flags().String("name", "", "Student name (required)")
	markCmd.Flags().String("lecture", "", "Lecture code (required)")
	markCmd.Flags().Int("slot", 1, "Lecture slot")
	markCmd.MarkFlagRequired("roll")
	markCmd.MarkFlagRequired("name")
	markCmd.MarkFlagRequired("lecture")
}

func runMark(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	session := attendance.Session{Lecture: mustGetString(cmd, "lecture"), Slot: mustGetInt(cmd, "slot")}.WithDefaults()
	if !session.Active() {
		return fmt.Errorf("lecture %q does not start a session", session.Lecture)
	}
	if !cfg.Catalogue.HasLecture(session.Lecture) {
		return fmt.Errorf("unknown lecture %q", session.Lecture)
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	identity := attendance.Identity{PersonID: mustGetString(cmd, "roll"), DisplayName: mustGetString(cmd, "name")}
	event, err := p.backend.Mark(cmd.Context(), identity, session)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s) %s/%d: %s\n", identity.DisplayName, identity.PersonID, session.Lecture, session.Slot, event.Outcome)
	if event.ServerMessage != "" {
		fmt.Printf("  Backend: %s\n", event.ServerMessage)
	}
	if event.Reason != "" {
		fmt.Printf("  Reason:  %s\n", event.Reason)
	}
	if event.Outcome == attendance.Rejected {
		return errors.New("mark not recorded")
	}
	return nil
}
