package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/collector"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Capture labelled face samples and upload them for training",
	Long: `Capture face samples of one student from the IP camera and upload
them to the backend in one batch. Frames without a face are retried.
Nothing is cleared unless the whole upload succeeds; with --keep-dir the
samples are also written to disk when the upload fails.

Example:
  rollcall collect --roll 21 --name Alice --count 5
  rollcall collect --roll 21 --name Alice --mode train --keep-dir ./samples`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().String("roll", "", "Roll number (required)")
	collectCmd.Flags().String("name", "", "Student name (required)")
	collectCmd.Flags().Int("count", 5, "Number of samples to capture")
	collectCmd.Flags().Duration("interval", time.Second, "Delay between captures")
	collectCmd.Flags().Int("attempts", 0, "Maximum capture attempts (default 4x count)")
	collectCmd.Flags().String("mode", "", "Upload mode (register, train); overrides SAMPLE_UPLOAD_MODE")
	collectCmd.Flags().String("snapshot-url", "", "Camera snapshot URL; overrides CAMERA_SNAPSHOT_URL")
	collectCmd.Flags().String("keep-dir", "", "Write the samples here when the upload fails")
	collectCmd.MarkFlagRequired("roll")
	collectCmd.MarkFlagRequired("name")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	count := mustGetInt(cmd, "count")
	if count < 1 {
		return errors.New("--count must be at least 1")
	}
	attempts := mustGetInt(cmd, "attempts")
	if attempts <= 0 {
		attempts = 4 * count
	}
	mode := mustGetString(cmd, "mode")
	if mode != "" && mode != collector.ModeRegister && mode != collector.ModeTrain {
		return fmt.Errorf("unknown upload mode %q", mode)
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

	c := p.collector(source, nil, mode)
	if _, err := c.SetLabel(mustGetString(cmd, "roll"), mustGetString(cmd, "name")); err != nil {
		return err
	}

	if err := captureSamples(ctx, c, count, attempts, mustGetDuration(cmd, "interval")); err != nil {
		return err
	}

	if err := uploadSamples(ctx, c); err != nil {
		if dir := mustGetString(cmd, "keep-dir"); dir != "" {
			paths, saveErr := c.SaveTo(dir)
			if saveErr != nil {
				logger.Error("could not keep samples", "dir", dir, "error", saveErr)
			} else {
				fmt.Printf("Kept %d samples in %s\n", len(paths), dir)
			}
		}
		return err
	}
	return nil
}

// captureSamples captures until count samples exist or attempts run out.
func captureSamples(ctx context.Context, c *collector.Collector, count, attempts int, interval time.Duration) error {
	rollNo, name := c.Label()
	fmt.Printf("Capturing %d samples of %s (%s)\n", count, name, rollNo)

	for attempt := 1; len(c.Samples()) < count; attempt++ {
		if attempt > attempts {
			return fmt.Errorf("captured %d of %d samples in %d attempts", len(c.Samples()), count, attempts)
		}

		sample, err := c.Capture(ctx)
		switch {
		case err == nil:
			dup := ""
			if sample.NearDuplicate {
				dup = " (looks like the previous sample, move a little)"
			}
			fmt.Printf("  %s%s\n", sample.Filename, dup)
		case errors.Is(err, collector.ErrNoFace), errors.Is(err, camera.ErrNoDeviceFrame):
			fmt.Printf("  attempt %d: %v\n", attempt, err)
		default:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil
}

func uploadSamples(ctx context.Context, c *collector.Collector) error {
	total := len(c.Samples())
	if c.UploadMode() == collector.ModeTrain {
		total++
	} else {
		total = 1
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(fmt.Sprintf("Uploading (%s)", c.UploadMode())),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	err := c.Upload(ctx, func(done, _ int) {
		bar.Set(done)
	})
	bar.Finish()
	fmt.Println()

	if err != nil {
		return fmt.Errorf("upload failed, samples kept: %w", err)
	}
	fmt.Println("Samples uploaded")
	return nil
}
