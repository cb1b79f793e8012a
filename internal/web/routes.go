package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/rollcall/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	logger := s.logger
	scannerHandler := handlers.NewScannerHandler(s.deps.Scanner, s.config.Catalogue, s.deps.Notifications, logger)
	cameraHandler := handlers.NewCameraHandler(s.deps.Push, s.deps.Scanner, s.origins.CheckOrigin, logger)
	collectorHandler := handlers.NewCollectorHandler(s.deps.Collector, logger)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/lectures", scannerHandler.Lectures)

		// Scanner
		r.Get("/scanner", scannerHandler.Status)
		r.Put("/scanner/session", scannerHandler.SelectSession)
		r.Post("/scanner/pause", scannerHandler.Pause)
		r.Post("/scanner/resume", scannerHandler.Resume)
		r.Get("/scanner/events", scannerHandler.Events)
		r.Get("/notifications", scannerHandler.Notifications)
		r.Get("/history", scannerHandler.History)

		// Camera
		r.Get("/camera", cameraHandler.Info)
		r.Get("/camera/ws", cameraHandler.WebSocket)
		r.Post("/camera/frame", cameraHandler.Frame)

		// Sample collector
		r.Get("/collector", collectorHandler.Get)
		r.Put("/collector/label", collectorHandler.SetLabel)
		r.Post("/collector/capture", collectorHandler.Capture)
		r.Get("/collector/samples/{index}", collectorHandler.Preview)
		r.Delete("/collector/samples", collectorHandler.Discard)
		r.Post("/collector/upload", collectorHandler.Upload)
	})
}
