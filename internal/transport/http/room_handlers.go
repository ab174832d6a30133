package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/proto"
	"github.com/vovakirdan/anonchat/internal/service/chat"
)

// RoomHandlers provides HTTP handlers for room and message endpoints.
type RoomHandlers struct {
	svc ChatService
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(svc ChatService, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		svc: svc,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ListRooms handles listing all rooms.
// GET /rest/v1/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.svc.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		writeError(c, err)
		return
	}

	response := make([]proto.Room, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, proto.RoomFromCore(room))
	}
	c.JSON(http.StatusOK, response)
}

// ListMessages handles reading the latest page of a room's history.
// GET /rest/v1/rooms/:id/messages?limit=N
func (h *RoomHandlers) ListMessages(c *gin.Context) {
	roomID := c.Param("id")

	limit := backend.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > chat.MaxPageSize {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "limit must be between 1 and " + strconv.Itoa(chat.MaxPageSize),
				Code:  core.ErrCodeBadRequest,
			})
			return
		}
		limit = n
	}

	msgs, err := h.svc.ListMessages(c.Request.Context(), roomID, limit)
	if err != nil {
		h.log.Debug().Err(err).Str("room_id", roomID).Msg("failed to list messages")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messagesToProto(msgs))
}

// PostMessage handles message creation.
// POST /rest/v1/rooms/:id/messages
func (h *RoomHandlers) PostMessage(c *gin.Context) {
	roomID := c.Param("id")

	var req proto.InsertMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid insert message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeBadRequest})
		return
	}

	msg, err := h.svc.Post(c.Request.Context(), insertToCore(roomID, req))
	if err != nil {
		h.log.Debug().Err(err).Str("room_id", roomID).Str("user_id", req.UserID).Msg("message rejected")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, proto.MessageFromCore(msg))
}
