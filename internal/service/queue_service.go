package service

import (
	"context"

	"github.com/carryhub/carry-service/internal/model"
	"github.com/carryhub/carry-service/internal/queue"
	"gorm.io/gorm"
)

// QueueService — читающие запросы очереди: выдача, позиция, подбор
// совместимых тикетов. Чистая логика живёт в пакете queue, отсюда идут
// только индексированные чтения.
type QueueService struct {
	db *gorm.DB
}

func NewQueueService(db *gorm.DB) *QueueService {
	return &QueueService{db: db}
}

// Waiting — ожидающие тикеты в порядке обслуживания (ранг доступности,
// затем FIFO). mode фильтрует по режиму, availableNow оставляет только
// доступных прямо сейчас.
func (s *QueueService) Waiting(ctx context.Context, mode string, availableNow bool) ([]model.Ticket, error) {
	tx := s.db.WithContext(ctx).
		Where("status = ? AND merged_into IS NULL", model.TicketStatusWaiting)
	if mode != "" {
		tx = tx.Where("mode = ?", mode)
	}
	var tickets []model.Ticket
	if err := tx.Order("created_at ASC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	if availableNow {
		tickets = queue.FilterAvailableNow(tickets)
	}
	queue.Order(tickets)
	return tickets, nil
}

// Position — место тикета среди ожидающих его режима по времени создания.
func (s *QueueService) Position(ctx context.Context, t *model.Ticket) (int, error) {
	var ahead int64
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("status = ? AND mode = ? AND created_at < ?", model.TicketStatusWaiting, t.Mode, t.CreatedAt).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// Compatible — ожидающие тикеты того же режима с пересекающимся окном
// доступности, по времени создания. Кандидаты сужаются индексом по
// (status, mode), пересечение окон считает пакет queue.
func (s *QueueService) Compatible(ctx context.Context, source *model.Ticket) ([]model.Ticket, error) {
	var candidates []model.Ticket
	err := s.db.WithContext(ctx).
		Where("status = ? AND mode = ? AND merged_into IS NULL AND id <> ?",
			model.TicketStatusWaiting, source.Mode, source.ID).
		Order("created_at ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return queue.Compatible(source, candidates), nil
}
