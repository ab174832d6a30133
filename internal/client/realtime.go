package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/proto"
)

const feedBuffer = 64

// ErrMalformedEvent ends a feed whose insert event could not be decoded.
var ErrMalformedEvent = errors.New("malformed realtime event")

// Subscribe implements backend.Subscriber. It returns after the server
// confirms the feed with a subscribed event.
func (c *Client) Subscribe(ctx context.Context, roomID string) (backend.Subscription, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set(headerAPIKey, c.apiKey)
	}
	conn, _, err := websocket.Dial(dialCtx, c.realtimeURL(), &websocket.DialOptions{
		HTTPClient: c.dialer,
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	if err := handshake(dialCtx, conn, roomID); err != nil {
		conn.Close(websocket.StatusNormalClosure, "handshake failed")
		return nil, err
	}

	readCtx, stop := context.WithCancel(context.Background())
	s := &realtimeFeed{
		roomID: roomID,
		conn:   conn,
		ch:     make(chan core.Message, feedBuffer),
		stop:   stop,
		done:   make(chan struct{}),
	}
	go s.readLoop(readCtx, c)

	c.log.Debug().Str("room_id", roomID).Msg("realtime feed subscribed")
	return s, nil
}

func (c *Client) realtimeURL() string {
	u := *c.base
	u.Path = c.base.Path + realtimePath
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	return u.String()
}

func handshake(ctx context.Context, conn *websocket.Conn, roomID string) error {
	payload, err := json.Marshal(proto.JoinData{Room: roomID})
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: payload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("await subscription: %w", err)
		}
		switch {
		case out.Type == proto.OutboundTypeError && out.Error != nil:
			return errorFromCode(out.Error.Code, out.Error.Msg)
		case out.Type == proto.OutboundTypeEvent && out.Event == proto.EventSubscribed:
			return nil
		}
	}
}

// realtimeFeed is a live subscription bound to one websocket.
type realtimeFeed struct {
	roomID string
	conn   *websocket.Conn
	ch     chan core.Message
	stop   context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

func (s *realtimeFeed) Messages() <-chan core.Message {
	return s.ch
}

func (s *realtimeFeed) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close sends leave, closes the socket and waits for the reader to exit.
func (s *realtimeFeed) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	_ = wsjson.Write(ctx, s.conn, proto.Inbound{Type: proto.InboundTypeLeave})
	cancel()

	s.stop()
	// The reader may already have closed the socket after an error frame.
	_ = s.conn.Close(websocket.StatusNormalClosure, "leave")
	<-s.done
	return nil
}

func (s *realtimeFeed) readLoop(ctx context.Context, c *Client) {
	defer close(s.done)
	defer close(s.ch)

	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, s.conn, &out); err != nil {
			s.finish(err)
			return
		}

		switch out.Type {
		case proto.OutboundTypeError:
			if out.Error == nil {
				s.finish(errors.New("realtime error frame without details"))
			} else {
				s.finish(errorFromCode(out.Error.Code, out.Error.Msg))
			}
			s.conn.Close(websocket.StatusNormalClosure, "feed failed")
			return
		case proto.OutboundTypeEvent:
			if out.Event != proto.EventInsert {
				continue
			}
			var msg proto.Message
			if err := json.Unmarshal(out.Data, &msg); err != nil {
				c.log.Warn().Err(err).Str("room_id", s.roomID).Msg("malformed insert event")
				s.finish(fmt.Errorf("%w: %v", ErrMalformedEvent, err))
				s.conn.Close(websocket.StatusUnsupportedData, "malformed insert event")
				return
			}
			select {
			case s.ch <- msg.ToCore():
			case <-ctx.Done():
				s.finish(ctx.Err())
				return
			}
		}
	}
}

// finish records why the feed ended; a feed ended by Close reports nil.
func (s *realtimeFeed) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.err = err
}
