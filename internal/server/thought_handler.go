package server

import (
	"bufio"
	"context"
	"time"
	"unicode/utf8"

	"thoughtstream/internal/broker"
	"thoughtstream/internal/entity"
	"thoughtstream/internal/errkind"
	"thoughtstream/internal/events"
	"thoughtstream/internal/fanout"
	"thoughtstream/internal/pkg/logger"
	"thoughtstream/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ThoughtHandler implements the ingest interface of §6.4: submit a thought
// for processing, and subscribe to its user's progress stream over SSE.
// Grounded on the teacher's internal/handler/notification_handler.go for the
// general handler shape (service + publisher + hub + logger fields, a
// RegisterRoutes method) though this domain's routes carry no auth
// middleware, since §6.4 names no authentication requirement.
type ThoughtHandler struct {
	thoughts        contract.ThoughtRepository
	producer        *broker.Producer
	bus             *fanout.Bus
	heartbeatPeriod time.Duration
	logger          logger.ILogger
}

func NewThoughtHandler(thoughts contract.ThoughtRepository, producer *broker.Producer, bus *fanout.Bus, heartbeatSeconds int, log logger.ILogger) *ThoughtHandler {
	return &ThoughtHandler{
		thoughts:        thoughts,
		producer:        producer,
		bus:             bus,
		heartbeatPeriod: time.Duration(heartbeatSeconds) * time.Second,
		logger:          log,
	}
}

func (h *ThoughtHandler) RegisterRoutes(router fiber.Router) {
	thoughts := router.Group("/thoughts")
	thoughts.Post("/", h.Submit)
	thoughts.Get("/:user_id/events", h.Events)
}

type submitThoughtRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type submitThoughtResponse struct {
	ThoughtID string `json:"thought_id"`
	Accepted  bool   `json:"accepted"`
	Mode      string `json:"mode"`
}

// Submit implements submit_thought(user_id, text): it persists a pending
// thought row, then hands it to the broker producer. A successful submit
// always returns quickly with accepted = true; downstream state is
// communicated exclusively via the fan-out stream and the persisted status,
// per §7's user-visible behavior contract.
func (h *ThoughtHandler) Submit(c *fiber.Ctx) error {
	var req submitThoughtRequest
	if err := c.BodyParser(&req); err != nil {
		return errkind.NewPermanent(errkind.PermanentInvalidPayload, "malformed request body", err)
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return errkind.NewPermanent(errkind.PermanentInvalidPayload, "user_id must be a uuid", err)
	}
	if req.Text == "" {
		return errkind.NewPermanent(errkind.PermanentInvalidPayload, "text must not be empty", nil)
	}
	if utf8.RuneCountInString(req.Text) > 10000 {
		return errkind.NewPermanent(errkind.PermanentInvalidPayload, "text must be at most 10000 characters", nil)
	}

	thought := &entity.Thought{
		Id:        uuid.New(),
		UserId:    userID,
		Text:      req.Text,
		Status:    entity.ThoughtStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.thoughts.Create(c.UserContext(), thought); err != nil {
		return errkind.NewPermanent(errkind.PermanentInvariant, "failed to persist thought", err)
	}

	accepted, err := h.producer.Submit(c.UserContext(), thought.Id, userID, req.Text)
	mode := "stream"
	if err != nil || !accepted {
		mode = "deferred"
	}

	return c.Status(fiber.StatusAccepted).JSON(submitThoughtResponse{
		ThoughtID: thought.Id.String(),
		Accepted:  true,
		Mode:      mode,
	})
}

// Events implements subscribe_progress(user_id): a long-lived SSE stream of
// the user's fan-out channel, using Fiber's stream writer per §4.9, with a
// heartbeat comment line on an interval and a clean exit on subscriber
// disconnect (the writer's Flush returning an error).
func (h *ThoughtHandler) Events(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return errkind.NewPermanent(errkind.PermanentInvalidPayload, "user_id must be a uuid", nil)
	}

	ctx, cancelSub := context.WithCancel(c.Context())
	eventCh, cancel, err := h.bus.Subscribe(ctx, userID)
	if err != nil {
		cancelSub()
		if err == fanout.ErrTooManyConnections {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		return errkind.NewPermanent(errkind.PermanentInvariant, "failed to subscribe", err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer cancelSub()

		heartbeat := time.NewTicker(h.heartbeatPeriod)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-eventCh:
				if !ok {
					return
				}
				if err := writeSSEEvent(w, event); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeSSEEvent(w *bufio.Writer, event events.Event) error {
	payload, err := events.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: "); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
