package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/cybercrawl/go-spider/pkg/hub"
	"github.com/cybercrawl/go-spider/pkg/nav"
)

// handleStatus returns the combined controller snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.snapshot())
}

// handleNavStart enters autonomous mode.
func (s *Server) handleNavStart(c *fiber.Ctx) error {
	if err := s.deps.Nav.Start(); err != nil {
		if errors.Is(err, nav.ErrAlreadyRunning) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "started"})
}

// handleNavStop leaves autonomous mode.
func (s *Server) handleNavStop(c *fiber.Ctx) error {
	if err := s.deps.Nav.Stop(); err != nil {
		if errors.Is(err, nav.ErrNotRunning) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "stopped"})
}

// handleAction runs one manual locomotion or gesture command. Rejected
// with 409 while the autonomous loop is driving; the sequencer must have
// exactly one driver.
func (s *Server) handleAction(c *fiber.Ctx) error {
	if s.deps.Nav.Running() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "autonomous navigation is running, stop it first",
		})
	}

	name := c.Params("name")
	cmd, ok := s.lookupAction(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown action: " + name})
	}

	s.manualMu.Lock()
	err := cmd()
	s.manualMu.Unlock()

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"action": name, "status": "done"})
}

func (s *Server) lookupAction(name string) (func() error, bool) {
	g := s.deps.Gait
	switch name {
	case "forward":
		return func() error { return g.StepForward(1) }, true
	case "backward":
		return func() error { return g.StepBack(1) }, true
	case "left":
		return func() error { return g.TurnLeft(1) }, true
	case "right":
		return func() error { return g.TurnRight(1) }, true
	case "stand":
		return g.Stand, true
	case "sit":
		return g.Sit, true
	case "wave":
		return func() error { return g.Wave(3) }, true
	case "shake":
		return func() error { return g.Shake(3) }, true
	case "dance":
		return g.Dance, true
	default:
		return nil, false
	}
}

// handleStatusWS streams status snapshots. The current snapshot is sent
// immediately on connect, then the broadcast loop takes over.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	c.WriteJSON(s.snapshot())

	client := hub.NewClient(s.statusHub, c)
	client.Run()
}
