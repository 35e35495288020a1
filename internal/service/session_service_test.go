package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/carryhub/carry-service/internal/errs"
	"github.com/carryhub/carry-service/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	// the pgx driver delivers SQLSTATE 23505 as *pgconn.PgError
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert session: %w", &pgconn.PgError{Code: "23505"})))

	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
	assert.False(t, isUniqueViolation(nil))
}

func TestSessionOpenClose(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Current(context.Background())
	assert.ErrorIs(t, err, errs.ErrSessionClosed)

	sess, err := env.sessions.Open(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusOpen, sess.Status)
	assert.Equal(t, "admin-1", sess.OpenedBy)
	assert.Zero(t, sess.TicketCount)

	current, err := env.sessions.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.ID, current.ID)

	_, err = env.sessions.Open(context.Background(), "admin-2")
	assert.ErrorIs(t, err, errs.ErrSessionAlreadyOpen)

	stats, err := env.sessions.Close(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stats.SessionID)

	_, err = env.sessions.Close(context.Background(), sess.ID)
	assert.ErrorIs(t, err, errs.ErrSessionNotOpen)
	_, err = env.sessions.Close(context.Background(), 404)
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)
	_, err = env.sessions.Current(context.Background())
	assert.ErrorIs(t, err, errs.ErrSessionClosed)
}

func TestSessionReopenAfterClose(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.sessions.Open(context.Background(), "admin-1")
	require.NoError(t, err)
	_, err = env.sessions.Close(context.Background(), first.ID)
	require.NoError(t, err)

	second, err := env.sessions.Open(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSessionOpenConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.sessions.Open(context.Background(), "admin-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, errs.ErrSessionAlreadyOpen)
		}
	}
	assert.Equal(t, 1, won)

	var open int64
	require.NoError(t, env.db.Model(&model.Session{}).
		Where("status = ?", model.SessionStatusOpen).Count(&open).Error)
	assert.Equal(t, int64(1), open)
}

func TestSessionStats(t *testing.T) {
	env := newTestEnv(t)
	sess := env.openSession(t)

	env.create(t, "p1") // stays waiting
	claimed := env.create(t, "p2")
	env.claim(t, claimed.ID, "h1")
	started := env.create(t, "p3")
	env.claim(t, started.ID, "h2")
	_, err := env.tickets.Start(context.Background(), started.ID)
	require.NoError(t, err)
	done := env.create(t, "p4")
	env.claim(t, done.ID, "h3")
	_, _, err = env.tickets.Complete(context.Background(), done.ID, "h3", "")
	require.NoError(t, err)
	dropped := env.create(t, "p5")
	_, err = env.tickets.Close(context.Background(), dropped.ID, "afk")
	require.NoError(t, err)

	stats, err := env.sessions.Stats(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalTickets)
	assert.Equal(t, int64(1), stats.Waiting)
	assert.Equal(t, int64(2), stats.Claimed) // claimed + in_progress
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Closed)

	_, err = env.sessions.Stats(context.Background(), 404)
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)
}
