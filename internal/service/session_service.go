package service

import (
	"context"
	"errors"
	"time"

	"github.com/carryhub/carry-service/internal/errs"
	"github.com/carryhub/carry-service/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SessionService управляет окном приёма тикетов. "Текущая сессия" — это
// запрос по status = 'open', а не кэш в памяти; единственность открытой
// сессии держит partial unique index.
type SessionService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db, now: time.Now}
}

// Open создаёт открытую сессию условной вставкой: INSERT проходит только
// пока открытых сессий нет, гонка ловится на уникальном индексе.
func (s *SessionService) Open(ctx context.Context, actorID string) (*model.Session, error) {
	res := s.db.WithContext(ctx).Exec(`
		INSERT INTO sessions (status, opened_at, opened_by, ticket_count)
		SELECT ?, ?, ?, 0
		WHERE NOT EXISTS (SELECT 1 FROM sessions WHERE status = ?)`,
		model.SessionStatusOpen, s.now().UTC(), actorID, model.SessionStatusOpen,
	)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, errs.ErrSessionAlreadyOpen
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrSessionAlreadyOpen
	}
	return s.Current(ctx)
}

// isUniqueViolation ловит нарушение uniq_sessions_open: два конкурентных
// INSERT ... WHERE NOT EXISTS могут оба пройти проверку на снапшотах до
// чужого коммита, проигравший получает 23505. gorm ходит в postgres через
// pgx, поэтому ошибка приходит как *pgconn.PgError, не *pq.Error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Close закрывает сессию условным UPDATE и возвращает её статистику.
func (s *SessionService) Close(ctx context.Context, sessionID uint64) (*model.SessionStats, error) {
	res := s.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ?", sessionID, model.SessionStatusOpen).
		Updates(map[string]interface{}{
			"status":    model.SessionStatusClosed,
			"closed_at": s.now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var sess model.Session
		if err := s.db.WithContext(ctx).First(&sess, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.ErrSessionNotFound
			}
			return nil, err
		}
		return nil, errs.ErrSessionNotOpen
	}
	return s.Stats(ctx, sessionID)
}

// Current возвращает единственную открытую сессию или ErrSessionClosed.
func (s *SessionService) Current(ctx context.Context) (*model.Session, error) {
	var sess model.Session
	err := s.db.WithContext(ctx).
		Where("status = ?", model.SessionStatusOpen).
		Order("id DESC").
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionClosed
		}
		return nil, err
	}
	return &sess, nil
}

// Stats — агрегаты по тикетам сессии; работает и для открытой сессии.
func (s *SessionService) Stats(ctx context.Context, sessionID uint64) (*model.SessionStats, error) {
	var sess model.Session
	if err := s.db.WithContext(ctx).First(&sess, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, err
	}

	stats := &model.SessionStats{SessionID: sessionID}
	type row struct {
		Status model.TicketStatus
		N      int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Select("status, count(*) as n").
		Where("session_id = ?", sessionID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.TotalTickets += r.N
		switch r.Status {
		case model.TicketStatusWaiting:
			stats.Waiting = r.N
		case model.TicketStatusClaimed, model.TicketStatusInProgress:
			stats.Claimed += r.N
		case model.TicketStatusCompleted:
			stats.Completed = r.N
		case model.TicketStatusClosed:
			stats.Closed = r.N
		}
	}
	return stats, nil
}
