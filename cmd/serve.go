package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/camera"
	"github.com/kozaktomas/rollcall/internal/notify"
	"github.com/kozaktomas/rollcall/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk server",
	Long: `Start the kiosk server.
The kiosk page streams webcam frames over a websocket; the scan loop
recognizes faces in them and marks attendance for the selected lecture.
The same server exposes the training sample collector.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8090, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("lecture", "", "Lecture to start scanning right away")
	serveCmd.Flags().Int("slot", 1, "Slot for --lecture")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	push := camera.NewPush(cfg.Camera.MaxFrameAge)
	guard := &camera.Guard{}
	loop := p.scanLoop(push, guard)
	samples := p.collector(push, guard, "")

	queue := notify.NewQueue(cfg.Scanner.NotificationTTL, logger)
	notifyCh := loop.Events().AddListener()
	go queue.Consume(ctx, notifyCh)

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	if lecture := mustGetString(cmd, "lecture"); lecture != "" {
		session := attendance.Session{Lecture: lecture, Slot: mustGetInt(cmd, "slot")}.WithDefaults()
		if err := loop.SelectSession(ctx, session); err != nil {
			return fmt.Errorf("select session: %w", err)
		}
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, web.Deps{
		Scanner:       loop,
		Collector:     samples,
		Notifications: queue,
		Push:          push,
		Logger:        logger,
	}, port, host)

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	fmt.Printf("Starting rollcall kiosk on http://%s:%d\n", host, port)
	fmt.Printf("Backend: %s, detector: %s\n", cfg.Backend.URL, cfg.Detector.URL)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		stop()
		return fmt.Errorf("starting server: %w", err)
	}
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scan loop: %w", err)
	}
	return nil
}
