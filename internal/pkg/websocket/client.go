package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/middleware"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16 * 1024

	sendBuffer = 16
)

// Session is the conversation a client drives
type Session interface {
	Say(ctx context.Context, text string) (ai.Turn, error)
	Evaluate(ctx context.Context) (ai.EvaluationResult, error)
}

// SessionFactory opens a new conversation
type SessionFactory func(persona ai.Persona, scenario string) Session

// Client is a middleman between one websocket connection and its practice
// session. At most one reply or evaluation is in flight at a time.
type Client struct {
	conn   *websocket.Conn
	send   chan dto.PracticeFrame
	open   SessionFactory
	userID int64
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	busy    atomic.Bool
	mu      sync.Mutex
	session Session
	wg      sync.WaitGroup
}

func newClient(conn *websocket.Conn, open SessionFactory, userID int64, logger zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:   conn,
		send:   make(chan dto.PracticeFrame, sendBuffer),
		open:   open,
		userID: userID,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// start replaces the current session with a fresh one
func (c *Client) start(persona ai.Persona, scenario string) {
	persona = persona.Normalize()
	c.mu.Lock()
	c.session = c.open(persona, scenario)
	c.mu.Unlock()
	c.enqueue(dto.PracticeFrame{Type: dto.FrameReady, Persona: string(persona), Scenario: scenario})
}

func (c *Client) current() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// enqueue queues a frame unless the connection is shutting down
func (c *Client) enqueue(frame dto.PracticeFrame) {
	select {
	case c.send <- frame:
	case <-c.ctx.Done():
	}
}

func (c *Client) sendError(err error) {
	_, detail := middleware.ErrorDetailFor(err)
	c.enqueue(dto.PracticeFrame{Type: dto.FrameError, Error: detail})
}

// run executes fn off the read loop, rejecting overlapping work with a busy frame
func (c *Client) run(fn func(ctx context.Context)) {
	if !c.busy.CompareAndSwap(false, true) {
		c.enqueue(dto.PracticeFrame{Type: dto.FrameBusy})
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.busy.Store(false)
		fn(c.ctx)
	}()
}

func (c *Client) handle(frame dto.PracticeFrame) {
	switch frame.Type {
	case dto.FrameStart:
		if c.busy.Load() {
			c.enqueue(dto.PracticeFrame{Type: dto.FrameBusy})
			return
		}
		c.start(ai.Persona(frame.Persona), frame.Scenario)

	case dto.FrameSay:
		session := c.current()
		text := frame.Text
		c.run(func(ctx context.Context) {
			turn, err := session.Say(ctx, text)
			if err != nil {
				if errors.Is(err, apperrors.ErrSessionBusy) {
					c.enqueue(dto.PracticeFrame{Type: dto.FrameBusy})
					return
				}
				c.sendError(err)
				return
			}
			c.enqueue(dto.PracticeFrame{Type: dto.FrameReply, Turn: &turn})
		})

	case dto.FrameEvaluate:
		session := c.current()
		c.run(func(ctx context.Context) {
			result, err := session.Evaluate(ctx)
			if err != nil {
				if errors.Is(err, apperrors.ErrSessionBusy) {
					c.enqueue(dto.PracticeFrame{Type: dto.FrameBusy})
					return
				}
				c.sendError(err)
				return
			}
			c.enqueue(dto.PracticeFrame{Type: dto.FrameResult, Result: &result})
		})

	default:
		c.sendError(apperrors.NewValidationError("type", "unknown frame type "+frame.Type))
	}
}

// readPump reads frames from the connection until it closes
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug().Int64("userID", c.userID).Msg("Practice socket closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Int64("userID", c.userID).Msg("Unexpected practice socket close")
			} else {
				c.logger.Debug().Err(err).Int64("userID", c.userID).Msg("Practice socket read error")
			}
			return
		}

		var frame dto.PracticeFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.logger.Warn().Err(err).Int64("userID", c.userID).Msg("Failed to unmarshal practice frame")
			c.sendError(apperrors.NewBadRequestError("malformed frame"))
			continue
		}
		c.handle(frame)
	}
}

// writePump writes queued frames and keepalive pings to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				c.cancel()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
