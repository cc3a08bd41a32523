package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	applog "github.com/Amr-9/SeedHunter/internal/logger"
	"github.com/Amr-9/SeedHunter/pkg/generator"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// Stream message types.
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is one frame sent on /grind/stream.
type StreamMessage struct {
	Type     string           `json:"type"`
	Progress *ProgressPayload `json:"progress,omitempty"`
	Result   *GrindResponse   `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Status   int              `json:"status,omitempty"`
}

// ProgressPayload reports live search throughput.
type ProgressPayload struct {
	Attempts          uint64  `json:"attempts"`
	AttemptsPerSecond float64 `json:"attempts_per_second"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
}

type grindOutcome struct {
	result *generator.Result
	err    error
}

// handleGrindStream runs a grind and pushes progress frames until a result
// or error frame ends the stream. Closing the socket cancels the grind;
// stopping the server ends it with an error frame.
func (s *Server) handleGrindStream(w http.ResponseWriter, r *http.Request) {
	// Registered before the upgrade, while Shutdown still tracks the connection.
	s.streams.Add(1)
	defer s.streams.Done()

	sess, ok := s.prepare(w, r)
	if !ok {
		return
	}

	log := applog.FromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	// The hijacked request's own context says nothing about the socket.
	ctx, cancel := s.grindContext(context.WithoutCancel(r.Context()))
	defer cancel()

	// The reader only watches for the peer going away.
	go func() {
		defer cancel()
		conn.SetReadLimit(maxMessageSize)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("websocket read error", zap.Error(err))
				}
				return
			}
		}
	}()

	done := make(chan grindOutcome, 1)
	go func() {
		result, err := s.grind(ctx, sess)
		done <- grindOutcome{result: result, err: err}
	}()

	ticker := time.NewTicker(s.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := sess.Stats()
			msg := StreamMessage{
				Type: MessageProgress,
				Progress: &ProgressPayload{
					Attempts:          stats.Attempts,
					AttemptsPerSecond: stats.HashRate,
					ElapsedSeconds:    stats.ElapsedSecs,
				},
			}
			if err := s.writeFrame(conn, msg); err != nil {
				cancel()
				<-done
				return
			}

		case out := <-done:
			if out.err != nil {
				var status int
				var msg string
				switch {
				case s.ctx.Err() != nil:
					status, msg = http.StatusServiceUnavailable, shutdownMessage
				case ctx.Err() != nil:
					log.Info("grind stream abandoned by client", zap.Error(out.err))
					return
				default:
					status, msg = grindFailure(out.err)
				}
				_ = s.writeFrame(conn, StreamMessage{Type: MessageError, Error: msg, Status: status})
			} else {
				resp := NewGrindResponse(out.result)
				_ = s.writeFrame(conn, StreamMessage{Type: MessageResult, Result: &resp})
			}

			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
