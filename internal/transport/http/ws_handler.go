package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/proto"
	"github.com/vovakirdan/anonchat/internal/utils"
)

const (
	outboundBuffer = 64
	// Inbound control frames allowed per connection per minute.
	inboundFrameLimit = 60
)

// errFeedEnded closes the socket after the error frame of a dropped feed.
var errFeedEnded = errors.New("live feed ended")

// WSHandler upgrades HTTP connections and streams room inserts to them.
type WSHandler struct {
	feeds backend.Subscriber
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(feeds backend.Subscriber, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{feeds: feeds, log: logger}
}

type frame struct {
	out   proto.Outbound
	final bool
}

// wsConn is the per-socket state. At most one room feed is open at a time.
type wsConn struct {
	id  string
	out chan frame

	sub  backend.Subscription
	room string
	stop chan struct{}
	// done is closed when the forward pump of sub has returned.
	done chan struct{}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := &wsConn{id: utils.NewID("ws"), out: make(chan frame, outboundBuffer)}
	defer h.unsubscribe(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if errors.Is(err, errFeedEnded) {
		conn.Close(websocket.StatusTryAgainLater, "live feed ended")
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.id).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *wsConn) error {
	limiter := newRateLimiter(inboundFrameLimit, time.Minute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.id).Msg("read ws inbound")
			return err
		}

		if !limiter.allow(time.Now()) {
			h.send(ctx, client, frame{out: proto.NewError("rate_limited", "too many frames")})
			continue
		}

		switch inbound.Type {
		case proto.InboundTypeJoin:
			var join proto.JoinData
			if err := json.Unmarshal(inbound.Data, &join); err != nil || join.Room == "" {
				h.send(ctx, client, frame{out: proto.NewError(core.ErrCodeBadRequest, "room is required")})
				continue
			}
			h.join(ctx, client, join.Room)
		case proto.InboundTypeLeave:
			h.unsubscribe(client)
		default:
			h.send(ctx, client, frame{out: proto.NewError("invalid_message", "unknown message type")})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *wsConn) error {
	for {
		select {
		case f := <-client.out:
			if err := wsjson.Write(ctx, conn, f.out); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.id).Msg("write ws frame")
				return err
			}
			if f.final {
				return errFeedEnded
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// join replaces any open feed with the feed of room and confirms it.
func (h *WSHandler) join(ctx context.Context, client *wsConn, room string) {
	h.unsubscribe(client)

	sub, err := h.feeds.Subscribe(ctx, room)
	if err != nil {
		h.log.Debug().Err(err).Str("conn_id", client.id).Str("room_id", room).Msg("subscribe failed")
		h.send(ctx, client, frame{out: protoError(err)})
		return
	}

	confirm, err := proto.NewEvent(proto.EventSubscribed, proto.EventSubscribedData{Room: room, Protocol: proto.ProtocolVersion})
	if err != nil {
		_ = sub.Close()
		h.send(ctx, client, frame{out: protoError(err)})
		return
	}

	client.sub = sub
	client.room = room
	client.stop = make(chan struct{})
	client.done = make(chan struct{})
	// Queued ahead of any insert so the client sees the confirmation first.
	h.send(ctx, client, frame{out: confirm})
	go h.forward(ctx, client, room, sub, client.stop, client.done)

	h.log.Debug().Str("conn_id", client.id).Str("room_id", room).Msg("ws joined room")
}

// unsubscribe releases the open feed and returns once its pump has exited,
// so no insert of the old room is queued after this point.
func (h *WSHandler) unsubscribe(client *wsConn) {
	if client.sub == nil {
		return
	}
	close(client.stop)
	_ = client.sub.Close()
	<-client.done
	h.log.Debug().Str("conn_id", client.id).Str("room_id", client.room).Msg("ws left room")
	client.sub, client.room, client.stop, client.done = nil, "", nil, nil
}

// forward pumps feed messages into the outbound queue until the feed ends.
func (h *WSHandler) forward(ctx context.Context, client *wsConn, room string, sub backend.Subscription, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for msg := range sub.Messages() {
		ev, err := proto.NewEvent(proto.EventInsert, proto.MessageFromCore(msg))
		if err != nil {
			h.log.Error().Err(err).Str("message_id", msg.ID).Msg("encode insert event")
			continue
		}
		select {
		case <-stop:
			return
		default:
		}
		select {
		case client.out <- frame{out: ev}:
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}

	select {
	case <-stop:
		// Closed by leave or a new join.
		return
	default:
	}

	cause := sub.Err()
	if cause == nil {
		return
	}
	h.log.Warn().Err(cause).Str("conn_id", client.id).Str("room_id", room).Msg("ws live feed dropped")
	feedErr := &core.SubscriptionError{Room: room, Err: cause}
	select {
	case client.out <- frame{out: protoError(feedErr), final: true}:
	case <-stop:
	case <-ctx.Done():
	}
}

func (h *WSHandler) send(ctx context.Context, client *wsConn, f frame) {
	select {
	case client.out <- f:
	case <-ctx.Done():
	}
}
