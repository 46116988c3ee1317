package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"whiteboard-relay/internal/config"
	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/dto"
	"whiteboard-relay/internal/entity"
	"whiteboard-relay/internal/mapper"
	"whiteboard-relay/internal/pkg/logger"
	"whiteboard-relay/internal/pkg/serverutils"
	"whiteboard-relay/internal/service"
	internalWS "whiteboard-relay/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// BoardHandler is the transport edge of the relay: it upgrades websocket
// sessions, routes their events to the note service and serves the polling
// fallback over plain HTTP.
type BoardHandler struct {
	notes  service.INoteService
	mirror service.IMirrorService
	hub    *internalWS.Hub
	cfg    *config.Config
	mapper *mapper.NoteMapper
	logger logger.ILogger
}

func NewBoardHandler(notes service.INoteService, mirror service.IMirrorService, hub *internalWS.Hub, cfg *config.Config, log logger.ILogger) *BoardHandler {
	return &BoardHandler{
		notes:  notes,
		mirror: mirror,
		hub:    hub,
		cfg:    cfg,
		mapper: mapper.NewNoteMapper(),
		logger: log,
	}
}

func (h *BoardHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.ServeWs)
	r.Get("/healthz", h.Health)

	api := r.Group("/api")
	api.Get("/notes", h.ListNotes)
	api.Post("/notes/events", h.PostEvent)
	api.Get("/relay-info", h.RelayInfo)
}

// ServeWs handles websocket requests from the peer.
func (h *BoardHandler) ServeWs(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(h.hub, conn, h)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// Join registers the session and sends it init-notes inside the note
// service's writer section, so no mutation can fall between the snapshot
// and the first broadcast the session receives.
func (h *BoardHandler) Join(c *internalWS.Client) {
	h.notes.Join(func(snapshot []*entity.Note) {
		h.hub.Register(c)
		h.hub.Unicast(c.ID, constant.EventInitNotes, h.mapper.ToResponses(snapshot))
	})
	h.logger.Info("BoardHandler", "Session joined", map[string]interface{}{"session_id": c.ID})
}

func (h *BoardHandler) Leave(c *internalWS.Client) {
	h.hub.Unregister(c)
	h.logger.Info("BoardHandler", "Session left", map[string]interface{}{"session_id": c.ID})
}

// Dispatch applies one inbound event. Failures are reported to the sender
// only; other sessions never see them.
func (h *BoardHandler) Dispatch(c *internalWS.Client, event string, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("BoardHandler", "Panic while handling event", map[string]interface{}{
				"session_id": c.ID,
				"event":      event,
				"panic":      fmt.Sprint(r),
			})
			h.hub.Unicast(c.ID, constant.EventError, dto.ErrorResponse{Message: constant.MessageUpdateFailed})
		}
	}()

	if _, err := h.apply(context.Background(), event, data); err != nil {
		h.logger.Warn("BoardHandler", "Event rejected", map[string]interface{}{
			"session_id": c.ID,
			"event":      event,
			"error":      err.Error(),
		})
		_, body := serverutils.ErrorResponse(err)
		h.hub.Unicast(c.ID, constant.EventError, body)
	}
}

// ListNotes returns the current snapshot for polling clients.
func (h *BoardHandler) ListNotes(ctx *fiber.Ctx) error {
	return ctx.JSON(h.mapper.ToResponses(h.notes.Snapshot()))
}

// PostEvent accepts the same {event, data} envelope as the websocket.
func (h *BoardHandler) PostEvent(ctx *fiber.Ctx) error {
	var msg dto.SocketMessage
	if err := json.Unmarshal(ctx.Body(), &msg); err != nil {
		return fmt.Errorf("%w: %v", constant.ErrMalformedPayload, err)
	}

	res, err := h.apply(ctx.UserContext(), msg.Event, msg.Data)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(res)
}

func (h *BoardHandler) RelayInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.RelayInfoResponse{
		SocketURL:           h.cfg.App.PublicSocketURL,
		Durable:             h.mirror.Enabled(),
		ExpiryWindowSeconds: int64(h.cfg.Expiry.Window.Seconds()),
	})
}

func (h *BoardHandler) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{
		Status:   "ok",
		Sessions: h.hub.Count(),
		Notes:    h.notes.Count(),
		Durable:  h.mirror.Enabled(),
	})
}

// apply decodes data for event and runs the matching mutation. It returns
// the payload that was broadcast.
func (h *BoardHandler) apply(ctx context.Context, event string, data json.RawMessage) (interface{}, error) {
	switch event {
	case constant.EventAddNote:
		var req dto.AddNoteRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		note, err := h.notes.Add(ctx, &req)
		if err != nil {
			return nil, err
		}
		return h.mapper.ToResponse(note), nil

	case constant.EventUpdateNote:
		var req dto.UpdateNoteRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		note, err := h.notes.Update(ctx, &req)
		if err != nil {
			return nil, err
		}
		return h.mapper.ToResponse(note), nil

	case constant.EventDeleteNote:
		var req dto.DeleteNoteRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		if err := h.notes.Delete(ctx, &req); err != nil {
			return nil, err
		}
		return req.Id, nil

	default:
		return nil, fmt.Errorf("%w: %s %q", constant.ErrMalformedPayload, constant.MessageUnknownEvent, event)
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: missing data", constant.ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", constant.ErrMalformedPayload, err)
	}
	return nil
}
