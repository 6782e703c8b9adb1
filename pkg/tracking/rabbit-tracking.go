package tracking

import (
	"log"
	"net/http"
	"time"

	"github.com/matst80/slask-gallery/pkg/common"
	"github.com/matst80/slask-gallery/pkg/messaging"
	"github.com/matst80/slask-gallery/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

const prefix = "global"

// RabbitTracking queues events and publishes them in the background so
// requests never wait on the broker.
type RabbitTracking struct {
	connection *amqp.Connection
	queue      *common.QueueHandler[any]
}

func NewRabbitTracking(url string) (*RabbitTracking, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := messaging.DefineTopic(ch, prefix, messaging.Tracking); err != nil {
		conn.Close()
		return nil, err
	}
	rt := &RabbitTracking{connection: conn}
	rt.queue = common.NewQueueHandler(rt.sendBatch, 50, 500*time.Millisecond)
	return rt, nil
}

func (rt *RabbitTracking) sendBatch(events []any) {
	for _, e := range events {
		if err := messaging.SendChange(rt.connection, prefix, messaging.Tracking, e); err != nil {
			log.Printf("failed to send tracking event: %v", err)
		}
	}
}

func (rt *RabbitTracking) Close() error {
	rt.queue.Close()
	return rt.connection.Close()
}

const (
	EventSession uint16 = 0
	EventSearch  uint16 = 1
)

type BaseEvent struct {
	SessionId string `json:"session_id"`
	Event     uint16 `json:"event"`
	Context   string `json:"context,omitempty"`
}

type Session struct {
	*BaseEvent
	UserAgent string `json:"user_agent,omitempty"`
	Ip        string `json:"ip,omitempty"`
	Language  string `json:"language,omitempty"`
}

type SearchEvent struct {
	*BaseEvent
	Selection       types.Selection `json:"selection"`
	NumberOfResults int             `json:"noi"`
	Page            int             `json:"page"`
	Referer         string          `json:"referer,omitempty"`
}

func clientIp(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func NewSessionEvent(sessionId string, r *http.Request) *Session {
	return &Session{
		BaseEvent: &BaseEvent{Event: EventSession, SessionId: sessionId, Context: "gallery"},
		UserAgent: r.UserAgent(),
		Ip:        clientIp(r),
		Language:  r.Header.Get("Accept-Language"),
	}
}

func NewSearchEvent(sessionId string, sel types.Selection, hits int, page int, r *http.Request) *SearchEvent {
	return &SearchEvent{
		BaseEvent:       &BaseEvent{Event: EventSearch, SessionId: sessionId, Context: "gallery"},
		Selection:       sel,
		NumberOfResults: hits,
		Page:            page,
		Referer:         r.Header.Get("Referer"),
	}
}

func (rt *RabbitTracking) TrackSession(sessionId string, r *http.Request) {
	rt.queue.Add(NewSessionEvent(sessionId, r))
}

func (rt *RabbitTracking) TrackSearch(sessionId string, sel types.Selection, hits int, page int, r *http.Request) {
	rt.queue.Add(NewSearchEvent(sessionId, sel, hits, page, r))
}
