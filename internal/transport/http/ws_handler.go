package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"lesson-quiz-service/internal/app"
	"lesson-quiz-service/internal/domain"
	"lesson-quiz-service/internal/logger"
)

type WSHandler struct {
	service  *app.QuizService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler accepts upgrades from the same origins the router allows for CORS.
// Requests without an Origin header come from non-browser clients and are accepted.
func NewWSHandler(service *app.QuizService, allowedOrigins []string, log *logger.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID domain.ID `json:"questionId"`
	ChoiceID   domain.ID `json:"choiceId"`
}

type textPayload struct {
	QuestionID domain.ID `json:"questionId"`
	Text       string    `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets, opens a quiz attempt for the
// learner and streams its view until the learner leaves or disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.StartRequest{
		LessonID:     q.Get("lessonId"),
		UserID:       q.Get("userId"),
		CourseID:     q.Get("courseId"),
		NextLessonID: q.Get("nextLessonId"),
	}
	if req.LessonID == "" || req.UserID == "" {
		http.Error(w, "missing lessonId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The attempt outlives individual requests only until the socket goes away.
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	attempt, err := h.service.Start(ctx, req)
	if err != nil {
		h.log.Error("start quiz attempt failed", "lesson_id", req.LessonID, "error", err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	attemptID := attempt.ID()
	log := h.log.With("attempt_id", attemptID, "user_id", req.UserID)

	updates, cancel, err := h.service.Subscribe(ctx, attemptID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var inflight sync.WaitGroup

	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}
	emitErr := func(err error) {
		emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	// Single writer; after a write error it keeps draining so producers never block.
	go func() {
		defer close(writerDone)
		broken := false
		for msg := range send {
			if broken {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("ws write error", "error", err)
				broken = true
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				emit(outboundMessage[any]{Type: "view", Payload: view})
			case <-closeSignals:
				return
			}
		}
	}()

	left := false
	for !left {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var p selectPayload
			if err := json.Unmarshal(inbound.Payload, &p); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}})
				continue
			}
			if err := h.service.SelectChoice(ctx, attemptID, p.QuestionID, p.ChoiceID); err != nil {
				emitErr(err)
			}
		case "text":
			var p textPayload
			if err := json.Unmarshal(inbound.Payload, &p); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid text payload"}})
				continue
			}
			if err := h.service.AnswerText(ctx, attemptID, p.QuestionID, p.Text); err != nil {
				emitErr(err)
			}
		case "next":
			if err := h.service.Next(ctx, attemptID); err != nil {
				emitErr(err)
			}
		case "previous":
			if err := h.service.Previous(ctx, attemptID); err != nil {
				emitErr(err)
			}
		case "submit":
			// Grading waits on the sink; keep reading so the learner can still leave.
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				if _, err := h.service.Submit(ctx, attemptID); err != nil {
					emitErr(err)
				}
			}()
		case "retake":
			if err := h.service.Retake(ctx, attemptID); err != nil {
				emitErr(err)
			}
		case "review":
			if err := h.service.Review(ctx, attemptID); err != nil {
				emitErr(err)
			}
		case "leave":
			target, err := h.service.Leave(ctx, attemptID)
			if err != nil {
				emitErr(err)
				continue
			}
			left = true
			emit(outboundMessage[any]{Type: "navigate", Payload: target})
		default:
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	if !left {
		_, _ = h.service.Leave(ctx, attemptID)
	}
	cancelCtx()
	inflight.Wait()
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
