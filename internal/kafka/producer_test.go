package kafka

import (
	"context"
	"testing"

	"github.com/carryhub/carry-service/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	assert.Nil(t, ParseBrokers(""))
	assert.Equal(t, []string{"kafka-1:9092"}, ParseBrokers("kafka-1:9092"))
	assert.Equal(t,
		[]string{"kafka-1:9092", "kafka-2:9092"},
		ParseBrokers(" kafka-1:9092, kafka-2:9092 ,"))
}

func TestNoopProducer(t *testing.T) {
	p := NewProducer(nil, "carry.ticket.events")
	// must not panic and must not try to connect anywhere
	p.ProduceTicketEvent(context.Background(), EventTicketCreated, &model.Ticket{ID: 1})
	p.ProduceSessionEvent(context.Background(), EventSessionOpened, &model.Session{ID: 1})
	assert.NoError(t, p.Close())

	p = NewProducer([]string{"kafka-1:9092"}, "")
	p.ProduceTicketEvent(context.Background(), EventTicketClaimed, &model.Ticket{ID: 1})
	assert.NoError(t, p.Close())
}
