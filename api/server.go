package api

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/LdDl/perimeter-go/events"
	"github.com/LdDl/perimeter-go/internal/log"
	"github.com/LdDl/perimeter-go/storage"
)

// EventStore is the persistence used by the server
type EventStore interface {
	InsertEvent(ctx context.Context, event events.Event) (int64, error)
	RecentEvents(ctx context.Context, limit int) ([]storage.StoredEvent, error)
}

var requiredFields = []string{"timestamp", "event_type", "value"}

// Server receives events from the detection loop and serves recent ones
type Server struct {
	app   *fiber.App
	addr  string
	store EventStore
}

// NewServer creates server listening on addr once started
func NewServer(store EventStore, addr string) *Server {
	s := &Server{
		addr:  addr,
		store: store,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Perimeter Events API",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	api := app.Group("/api")
	api.Post("/events", s.handleReceiveEvent)
	api.Get("/events", s.handleGetEvents)

	s.app = app
	return s
}

// App exposes fiber application (used in tests via app.Test)
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens and serves until Shutdown is called
func (s *Server) Start() error {
	log.Info("starting events API", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleReceiveEvent(c *fiber.Ctx) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
		}
	}
	var event events.Event
	if err := json.Unmarshal(c.Body(), &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if event.ID == "" {
		event.ID = c.Get("Idempotency-Key")
	}
	if err := event.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if _, err := s.store.InsertEvent(c.UserContext(), event); err != nil {
		log.Error("failed to store event", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	log.Info("event stored", "event_type", event.EventType, "timestamp", event.Timestamp)
	return c.JSON(fiber.Map{"status": "success", "message": "Event received"})
}

func (s *Server) handleGetEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", storage.DefaultRecentLimit)
	stored, err := s.store.RecentEvents(c.UserContext(), limit)
	if err != nil {
		log.Error("failed to read events", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"events": stored})
}
