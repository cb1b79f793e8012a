package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/notify"
	"github.com/kozaktomas/rollcall/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the scan loop against an IP camera",
	Long: `Run the scan loop headless, reading snapshots from CAMERA_SNAPSHOT_URL.
Every outcome is printed as it happens; the scan history is printed as a
table when the command stops.

Example:
  rollcall scan --lecture COA --slot 2
  rollcall scan --lecture DSGT --snapshot-url http://10.0.0.20/snapshot.jpg`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("lecture", "", "Lecture code (required)")
	scanCmd.Flags().Int("slot", 1, "Lecture slot")
	scanCmd.Flags().String("snapshot-url", "", "Camera snapshot URL; overrides CAMERA_SNAPSHOT_URL")
	scanCmd.Flags().Duration("interval", 0, "Scan interval; overrides SCAN_INTERVAL")
	scanCmd.MarkFlagRequired("lecture")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if interval := mustGetDuration(cmd, "interval"); interval > 0 {
		cfg.Scanner.Interval = interval
	}

	session := attendance.Session{Lecture: mustGetString(cmd, "lecture"), Slot: mustGetInt(cmd, "slot")}.WithDefaults()
	if !session.Active() {
		return fmt.Errorf("lecture %q does not start a session", session.Lecture)
	}

	source, err := snapshotSource(cfg, mustGetString(cmd, "snapshot-url"), logger)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	unlock, err := lockCamera(cfg, logger)
	if err != nil {
		return err
	}
	defer unlock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := p.scanLoop(source, nil)
	printed := make(chan struct{})
	go printOutcomes(loop.Events().AddListener(), printed)

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	if err := loop.SelectSession(ctx, session); err != nil {
		stop()
		<-loopDone
		return fmt.Errorf("select session: %w", err)
	}

	fmt.Printf("Scanning %s slot %d every %s. Press Ctrl+C to stop\n", session.Lecture, session.Slot, cfg.Scanner.Interval)

	err = <-loopDone
	<-printed

	status := loop.Status()
	fmt.Printf("\nCycles: %d completed, %d without frame, %d ticks skipped\n", status.Completed, status.NoFrame, status.Skipped)
	printHistory(loop.History().Entries(0))
	return err
}

// printOutcomes prints one line per scan event until the loop stops.
func printOutcomes(events <-chan scanner.Event, done chan<- struct{}) {
	defer close(done)
	for e := range events {
		kind, text := notify.FromEvent(e)
		who := ""
		if e.Result.Known() {
			who = fmt.Sprintf(" %s (%s) %.1f%%", e.Result.Identity.DisplayName, e.Result.Identity.PersonID, e.Result.Confidence*100)
		}
		fmt.Printf("%s [%s] %s%s\n", e.At.Format("15:04:05"), kind, text, who)
	}
}

func printHistory(entries []scanner.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Println("No faces recognized")
		return
	}
	fmt.Println(renderTable(historyColumns, historyRows(entries)))
}
