package service

import (
	"context"
	"errors"
	"time"

	"github.com/carryhub/carry-service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlacklistService управляет блокировками игроков. Наличие записи
// запрещает создание тикетов.
type BlacklistService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db, now: time.Now}
}

// Add — upsert по requester_id: повторная блокировка обновляет причину.
func (s *BlacklistService) Add(ctx context.Context, requesterID, reason, blockedBy string) (*model.BlacklistEntry, error) {
	entry := model.BlacklistEntry{
		RequesterID: requesterID,
		Reason:      reason,
		BlockedBy:   blockedBy,
		BlockedAt:   s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "requester_id"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *BlacklistService) Remove(ctx context.Context, requesterID string) error {
	return s.db.WithContext(ctx).Delete(&model.BlacklistEntry{}, "requester_id = ?", requesterID).Error
}

// Check возвращает запись блокировки или nil.
func (s *BlacklistService) Check(ctx context.Context, requesterID string) (*model.BlacklistEntry, error) {
	var entry model.BlacklistEntry
	err := s.db.WithContext(ctx).Where("requester_id = ?", requesterID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (s *BlacklistService) List(ctx context.Context) ([]model.BlacklistEntry, error) {
	var entries []model.BlacklistEntry
	err := s.db.WithContext(ctx).Order("blocked_at DESC").Find(&entries).Error
	return entries, err
}
