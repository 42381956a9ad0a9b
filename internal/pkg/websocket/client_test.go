package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/middleware"
)

type blockingSession struct {
	persona  ai.Persona
	release  chan struct{}
	entered  chan struct{}
	canceled atomic.Bool
}

func (s *blockingSession) Say(ctx context.Context, text string) (ai.Turn, error) {
	s.entered <- struct{}{}
	select {
	case <-s.release:
		return ai.Turn{Sender: ai.SenderAI, Text: "echo: " + text}, nil
	case <-ctx.Done():
		s.canceled.Store(true)
		return ai.Turn{}, ctx.Err()
	}
}

func (s *blockingSession) Evaluate(ctx context.Context) (ai.EvaluationResult, error) {
	return ai.EvaluationResult{OverallScore: 80}, nil
}

type countingRecorder struct {
	opened atomic.Int32
	closed atomic.Int32
}

func (r *countingRecorder) PracticeSessionOpened() { r.opened.Add(1) }
func (r *countingRecorder) PracticeSessionClosed() { r.closed.Add(1) }

func newPracticeServer(t *testing.T, session *blockingSession, rec *countingRecorder) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(func(p ai.Persona, _ string) Session {
		session.persona = p
		return session
	}, rec, nil, zerolog.Nop())

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, int64(5))
		c.Next()
	}, h.HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) dto.PracticeFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame dto.PracticeFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestPracticeSocketSingleFlight(t *testing.T) {
	session := &blockingSession{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	rec := &countingRecorder{}
	srv := newPracticeServer(t, session, rec)

	conn := dial(t, srv, "?persona=assistant&scenario=returns")
	defer conn.Close()

	ready := readFrame(t, conn)
	assert.Equal(t, dto.FrameReady, ready.Type)
	assert.Equal(t, "assistant", ready.Persona)
	assert.Equal(t, "returns", ready.Scenario)

	require.NoError(t, conn.WriteJSON(dto.PracticeFrame{Type: dto.FrameSay, Text: "hello"}))
	<-session.entered
	require.NoError(t, conn.WriteJSON(dto.PracticeFrame{Type: dto.FrameSay, Text: "again"}))

	assert.Equal(t, dto.FrameBusy, readFrame(t, conn).Type)

	close(session.release)
	reply := readFrame(t, conn)
	require.Equal(t, dto.FrameReply, reply.Type)
	require.NotNil(t, reply.Turn)
	assert.Equal(t, "echo: hello", reply.Turn.Text)

	require.NoError(t, conn.WriteJSON(dto.PracticeFrame{Type: dto.FrameEvaluate}))
	result := readFrame(t, conn)
	require.Equal(t, dto.FrameResult, result.Type)
	assert.Equal(t, 80, result.Result.OverallScore)

	assert.Equal(t, int32(1), rec.opened.Load())
}

func TestPracticeSocketUnknownPersonaDefaultsToCustomer(t *testing.T) {
	session := &blockingSession{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	srv := newPracticeServer(t, session, &countingRecorder{})

	conn := dial(t, srv, "?persona=pirate")
	defer conn.Close()

	assert.Equal(t, "customer", readFrame(t, conn).Persona)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))
	frame := readFrame(t, conn)
	require.Equal(t, dto.FrameError, frame.Type)
	assert.Equal(t, dto.ErrorCodeValidationFailed, frame.Error.Code)
}

func TestPracticeSocketCloseCancelsPendingReply(t *testing.T) {
	session := &blockingSession{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	rec := &countingRecorder{}
	srv := newPracticeServer(t, session, rec)

	conn := dial(t, srv, "")
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(dto.PracticeFrame{Type: dto.FrameSay, Text: "hello"}))
	<-session.entered
	require.NoError(t, conn.Close())

	assert.Eventually(t, session.canceled.Load, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return rec.closed.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
