package kafka

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/carryhub/carry-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// События жизненного цикла, публикуемые в топик.
const (
	EventTicketCreated   = "ticket.created"
	EventTicketClaimed   = "ticket.claimed"
	EventTicketUnclaimed = "ticket.unclaimed"
	EventTicketMerged    = "ticket.merged"
	EventTicketCompleted = "ticket.completed"
	EventTicketClosed    = "ticket.closed"
	EventSessionOpened   = "session.opened"
	EventSessionClosed   = "session.closed"
)

// TicketEventProducer — интерфейс для отправки событий тикета в Kafka
// (для подмены моком в тестах).
type TicketEventProducer interface {
	ProduceTicketEvent(ctx context.Context, event string, ticket *model.Ticket)
	ProduceSessionEvent(ctx context.Context, event string, session *model.Session)
}

// Producer пишет события carry в топик Kafka (best-effort, не блокирует API).
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer создаёт продюсер. Если brokers пустой или topic пустой — методы no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// ProduceTicketEvent отправляет событие тикета: event, ticket_id, session_id,
// requester_id, helper_id, mode, status, merged_into.
func (p *Producer) ProduceTicketEvent(ctx context.Context, event string, ticket *model.Ticket) {
	if p.writer == nil || ticket == nil {
		return
	}
	msg := map[string]interface{}{
		"event":        event,
		"ticket_id":    ticket.ID,
		"session_id":   ticket.SessionID,
		"requester_id": ticket.RequesterID,
		"mode":         ticket.Mode,
		"status":       ticket.Status,
	}
	if ticket.HelperID != nil {
		msg["helper_id"] = *ticket.HelperID
	}
	if ticket.MergedInto != nil {
		msg["merged_into"] = *ticket.MergedInto
	}
	p.produce(ctx, msg)
}

// ProduceSessionEvent отправляет событие сессии: event, session_id, status,
// ticket_count.
func (p *Producer) ProduceSessionEvent(ctx context.Context, event string, session *model.Session) {
	if p.writer == nil || session == nil {
		return
	}
	p.produce(ctx, map[string]interface{}{
		"event":        event,
		"session_id":   session.ID,
		"status":       session.Status,
		"ticket_count": session.TicketCount,
	})
}

func (p *Producer) produce(ctx context.Context, msg map[string]interface{}) {
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("kafka: marshal event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		log.Printf("kafka: write event: %v", err)
	}
}

// Close закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers разбивает строку брокеров "host1:9092,host2:9092" на слайс.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
