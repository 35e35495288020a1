package service

import (
	"context"
	"testing"
	"time"

	"github.com/carryhub/carry-service/internal/availability"
	"github.com/carryhub/carry-service/internal/config"
	"github.com/carryhub/carry-service/internal/model"
	"github.com/carryhub/carry-service/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv — сервисы поверх чистой тестовой базы.
type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	tickets  *TicketService
	sessions *SessionService
	queue    *QueueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.OpenTestDB(t)
	testutil.ResetTables(t, db)
	cfg := &config.Config{
		Modes:                config.DefaultModes,
		MaxTicketsPerSession: 60,
	}
	return &testEnv{
		db:       db,
		cfg:      cfg,
		tickets:  NewTicketService(db, cfg),
		sessions: NewSessionService(db),
		queue:    NewQueueService(db),
	}
}

func (e *testEnv) openSession(t *testing.T) *model.Session {
	t.Helper()
	sess, err := e.sessions.Open(context.Background(), "admin-1")
	require.NoError(t, err)
	return sess
}

func (e *testEnv) create(t *testing.T, requester string) *model.Ticket {
	t.Helper()
	ticket, _, err := e.tickets.Create(context.Background(), createInput(requester))
	require.NoError(t, err)
	return ticket
}

func (e *testEnv) claim(t *testing.T, id uint64, helper string) *model.Ticket {
	t.Helper()
	ticket, err := e.tickets.Claim(context.Background(), id, helper)
	require.NoError(t, err)
	return ticket
}

func createInput(requester string) CreateTicketInput {
	now := time.Now().UTC()
	return CreateTicketInput{
		RequesterID:  requester,
		PlayerName:   "Player " + requester,
		Level:        40,
		Mode:         "fallen",
		Timezone:     "UTC+0",
		Availability: nowWindow(now),
		CanChat:      true,
	}
}

func nowWindow(now time.Time) availability.Window {
	return availability.Window{
		Type:    availability.TypeNow,
		Start:   now,
		End:     now.Add(availability.DefaultWindow),
		Display: "Now",
	}
}
