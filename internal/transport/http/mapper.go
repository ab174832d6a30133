package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/proto"
)

func insertToCore(roomID string, req proto.InsertMessage) core.NewMessage {
	return core.NewMessage{
		RoomID:     roomID,
		AuthorID:   req.UserID,
		AuthorName: req.Username,
		Text:       req.Content,
	}
}

func messagesToProto(msgs []core.Message) []proto.Message {
	out := make([]proto.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, proto.MessageFromCore(m))
	}
	return out
}

// statusFor maps domain error codes to HTTP statuses.
func statusFor(code string) int {
	switch code {
	case core.ErrCodeRoomNotFound:
		return http.StatusNotFound
	case core.ErrCodeBadRequest, core.ErrCodeEmptyMessage, core.ErrCodeMessageTooLong:
		return http.StatusBadRequest
	case core.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	var ce *core.CoreError
	if errors.As(err, &ce) {
		c.JSON(statusFor(ce.Code), ErrorResponse{Error: ce.Message, Code: ce.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// protoError converts an error into a realtime error frame.
func protoError(err error) proto.Outbound {
	var ce *core.CoreError
	if errors.As(err, &ce) {
		return proto.NewError(ce.Code, ce.Message)
	}
	var se *core.SubscriptionError
	if errors.As(err, &se) {
		return proto.NewError(se.Code(), se.Error())
	}
	return proto.NewError("internal", "internal server error")
}
