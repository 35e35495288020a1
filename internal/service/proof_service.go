package service

import (
	"context"

	"github.com/carryhub/carry-service/internal/model"
	"gorm.io/gorm"
)

// ProofService — чтение записей о выполненных carry. Создаёт их
// TicketService.Complete в транзакции завершения.
type ProofService struct {
	db *gorm.DB
}

func NewProofService(db *gorm.DB) *ProofService {
	return &ProofService{db: db}
}

func (s *ProofService) Recent(ctx context.Context, limit int) ([]model.Proof, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var proofs []model.Proof
	err := s.db.WithContext(ctx).Order("completed_at DESC").Limit(limit).Find(&proofs).Error
	return proofs, err
}
