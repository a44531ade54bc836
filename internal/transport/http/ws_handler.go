package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/session"
)

type WSHandler struct {
	service  *app.QuizService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type tickPayload struct {
	Remaining int    `json:"remaining"`
	Clock     string `json:"clock"`
}

type notificationPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one quiz session over the connection.
// The session is torn down when the socket closes; unfinished attempts are not saved.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = bearerUser(r.Header.Get("Authorization"))
	}
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	snap, err := h.service.Start(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := snap.ID
	defer h.service.Close(context.Background(), sessionID)

	events, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	log := h.log.With(zap.String("session_id", sessionID), zap.String("quiz_id", quizID))
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- eventMessage(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: snap}
	if snap.Status == domain.StatusCompleted {
		// Empty quizzes finish inside Start, before the subscription exists.
		for _, msg := range completionMessages(snap) {
			send <- msg
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type == "close" {
			break
		}
		msg, ok := h.handle(r.Context(), sessionID, inbound)
		if ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

// handle applies one client command. Completion is reported by the session's
// own completed event, so a finishing advance sends nothing here.
func (h *WSHandler) handle(ctx context.Context, sessionID string, inbound inboundMessage) (outboundMessage[any], bool) {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
			return errorMessage("invalid select payload"), true
		}
		snap, err := h.service.SelectAnswer(ctx, sessionID, *payload.Option)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage[any]{Type: "answer", Payload: snap}, true
	case "next":
		snap, err := h.service.Advance(ctx, sessionID)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		if snap.Status == domain.StatusCompleted {
			return outboundMessage[any]{}, false
		}
		return outboundMessage[any]{Type: "question", Payload: snap}, true
	default:
		return errorMessage("unsupported message type"), true
	}
}

func eventMessage(ev session.Event) outboundMessage[any] {
	switch ev.Type {
	case session.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{Remaining: ev.Remaining, Clock: session.FormatClock(ev.Remaining)}}
	case session.EventCompleted:
		return outboundMessage[any]{Type: "completed", Payload: ev.Result}
	case session.EventSaved:
		return outboundMessage[any]{Type: "notification", Payload: notificationPayload{Level: "success", Message: ev.Message}}
	case session.EventSaveFailed:
		return outboundMessage[any]{Type: "notification", Payload: notificationPayload{Level: "error", Message: ev.Message}}
	default:
		return outboundMessage[any]{Type: string(ev.Type), Payload: ev}
	}
}

func completionMessages(snap session.Snapshot) []outboundMessage[any] {
	msgs := []outboundMessage[any]{{Type: "completed", Payload: snap.Result}}
	switch {
	case snap.Saved:
		msgs = append(msgs, outboundMessage[any]{Type: "notification", Payload: notificationPayload{Level: "success", Message: session.SavedMessage}})
	case snap.SaveError != "":
		msgs = append(msgs, outboundMessage[any]{Type: "notification", Payload: notificationPayload{Level: "error", Message: snap.SaveError}})
	}
	return msgs
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
