// Package web exposes the controller over HTTP: a status endpoint, start
// and stop controls for autonomous navigation, manual pass-through actions
// and a websocket status stream.
package web

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/hub"
	"github.com/cybercrawl/go-spider/pkg/nav"
	"github.com/cybercrawl/go-spider/pkg/vision"
)

// Navigator is the autonomous-mode surface of the navigation policy.
type Navigator interface {
	Start() error
	Stop() error
	Running() bool
	Status() nav.Status
}

// Actions is the manual pass-through surface of the gait sequencer.
type Actions interface {
	Stand() error
	Sit() error
	StepForward(paces int) error
	StepBack(paces int) error
	TurnLeft(steps int) error
	TurnRight(steps int) error
	Wave(n int) error
	Shake(n int) error
	Dance() error
}

// Deps collects the server's collaborators. The ultrasonic sensor is
// deliberately absent: the navigation loop is the sensor's only driver,
// and the web layer serves the policy's cached reading instead of firing
// measurements of its own.
type Deps struct {
	Nav    Navigator
	Gait   Actions
	Vision vision.Provider
}

// StatusPayload is the combined snapshot served on /api/status and
// streamed over the websocket.
type StatusPayload struct {
	Nav        nav.Status         `json:"nav"`
	DistanceCM *float64           `json:"distance_cm"` // policy's last reading; null when failed
	Detections []vision.Detection `json:"detections"`
}

// Server is the controller's web front end.
type Server struct {
	app  *fiber.App
	port string
	deps Deps

	statusHub *hub.Hub

	// manualMu serializes manual gait commands; the sequencer is not
	// reentrant.
	manualMu sync.Mutex
}

// NewServer wires routes. Call Run to serve.
func NewServer(port string, deps Deps) *Server {
	s := &Server{
		port:      port,
		deps:      deps,
		statusHub: hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-spider",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/nav/start", s.handleNavStart)
	api.Post("/nav/stop", s.handleNavStop)
	api.Post("/action/:name", s.handleAction)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Run starts the hub, the status broadcaster and the HTTP listener, and
// blocks until the context is canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	go s.statusHub.Run()
	go s.broadcastLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		log.Info("web server listening", "port", s.port)
		errc <- s.app.Listen(":" + s.port)
	}()

	select {
	case <-ctx.Done():
		return s.app.Shutdown()
	case err := <-errc:
		return err
	}
}

// broadcastLoop pushes status snapshots to websocket clients twice a
// second while anyone is listening.
func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.statusHub.ClientCount() == 0 {
				continue
			}
			if err := s.statusHub.BroadcastJSON(s.snapshot()); err != nil {
				log.Warn("status broadcast failed", "error", err)
			}
		}
	}
}

func (s *Server) snapshot() StatusPayload {
	st := s.deps.Nav.Status()
	return StatusPayload{
		Nav:        st,
		DistanceCM: st.DistanceCM,
		Detections: s.deps.Vision.Detections(),
	}
}
