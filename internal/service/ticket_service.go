package service

import (
	"context"
	"errors"
	"time"

	"github.com/carryhub/carry-service/internal/availability"
	"github.com/carryhub/carry-service/internal/config"
	"github.com/carryhub/carry-service/internal/errs"
	"github.com/carryhub/carry-service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketService — машина состояний тикета. Все переходы выполняются
// условными UPDATE (compare-and-set по статусу), merge и complete — в
// транзакции.
type TicketService struct {
	db  *gorm.DB
	cfg *config.Config
	now func() time.Time
}

func NewTicketService(db *gorm.DB, cfg *config.Config) *TicketService {
	return &TicketService{db: db, cfg: cfg, now: time.Now}
}

// CreateTicketInput — плоские данные заявки; окно доступности уже
// нормализовано парсером на стороне вызывающего.
type CreateTicketInput struct {
	RequesterID    string
	PlayerName     string
	Level          int
	Mode           string
	Timezone       string
	TimezoneOffset float64
	Availability   availability.Window
	PrivateServer  bool
	CanChat        bool
}

// Create заводит тикет в waiting. Гейты: открытая сессия, блэклист,
// минимальный уровень режима, один активный тикет на игрока. Счётчик
// сессии инкрементится в той же транзакции; по достижении лимита сессия
// закрывается. Возвращает тикет и позицию в очереди его режима.
func (s *TicketService) Create(ctx context.Context, in CreateTicketInput) (*model.Ticket, int, error) {
	mode, ok := s.cfg.Mode(in.Mode)
	if !ok {
		return nil, 0, errs.ErrUnknownMode
	}
	if in.Level < mode.MinLevel {
		return nil, 0, &errs.LevelTooLowError{Mode: mode.Value, Required: mode.MinLevel, Actual: in.Level}
	}

	var ticket model.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess model.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", model.SessionStatusOpen).
			First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrSessionClosed
			}
			return err
		}

		var entry model.BlacklistEntry
		if err := tx.Where("requester_id = ?", in.RequesterID).First(&entry).Error; err == nil {
			return &errs.BlacklistedError{RequesterID: in.RequesterID, Reason: entry.Reason}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var active int64
		if err := tx.Model(&model.Ticket{}).
			Where("requester_id = ? AND status IN ?", in.RequesterID, activeStatuses()).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return errs.ErrActiveTicketExists
		}

		end := in.Availability.End
		ticket = model.Ticket{
			RequesterID:      in.RequesterID,
			PlayerName:       in.PlayerName,
			Level:            in.Level,
			Mode:             mode.Value,
			Timezone:         in.Timezone,
			TimezoneOffset:   in.TimezoneOffset,
			AvailableType:    model.AvailabilityType(in.Availability.Type),
			AvailableStart:   in.Availability.Start,
			AvailableEnd:     &end,
			AvailableDisplay: in.Availability.Display,
			PrivateServer:    in.PrivateServer,
			CanChat:          in.CanChat,
			Status:           model.TicketStatusWaiting,
			SessionID:        sess.ID,
			CreatedAt:        s.now().UTC(),
		}
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}

		sess.TicketCount++
		updates := map[string]interface{}{"ticket_count": sess.TicketCount}
		if s.cfg.MaxTicketsPerSession > 0 && sess.TicketCount >= s.cfg.MaxTicketsPerSession {
			updates["status"] = model.SessionStatusClosed
			updates["closed_at"] = s.now().UTC()
		}
		return tx.Model(&model.Session{}).Where("id = ?", sess.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, 0, err
	}

	pos, err := s.queuePosition(ctx, &ticket)
	if err != nil {
		return nil, 0, err
	}
	return &ticket, pos, nil
}

func (s *TicketService) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ActiveForRequester возвращает незавершённый тикет игрока, если он есть.
func (s *TicketService) ActiveForRequester(ctx context.Context, requesterID string) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.WithContext(ctx).
		Where("requester_id = ? AND status IN ?", requesterID, activeStatuses()).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Claim — атомарный захват: одиночный условный UPDATE со статусом-гардом,
// из N одновременных попыток выигрывает ровно одна.
func (s *TicketService) Claim(ctx context.Context, id uint64, helperID string) (*model.Ticket, error) {
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND status = ?", id, model.TicketStatusWaiting).
		Updates(map[string]interface{}{
			"status":     model.TicketStatusClaimed,
			"helper_id":  helperID,
			"claimed_at": s.now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.claimConflict(ctx, id)
	}
	return s.GetByID(ctx, id)
}

// claimConflict различает проигравшего гонку и заведомо невалидный вызов.
func (s *TicketService) claimConflict(ctx context.Context, id uint64) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status.Claimed() {
		helper := ""
		if t.HelperID != nil {
			helper = *t.HelperID
		}
		return &errs.AlreadyClaimedError{TicketID: id, HelperID: helper}
	}
	return &errs.InvalidStateError{TicketID: id, Status: t.Status}
}

// Unclaim возвращает захваченный тикет в очередь.
func (s *TicketService) Unclaim(ctx context.Context, id uint64) (*model.Ticket, error) {
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND status IN ?", id, []model.TicketStatus{model.TicketStatusClaimed, model.TicketStatusInProgress}).
		Updates(map[string]interface{}{
			"status":     model.TicketStatusWaiting,
			"helper_id":  nil,
			"claimed_at": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.stateConflict(ctx, id)
	}
	return s.GetByID(ctx, id)
}

// Start переводит claimed в in_progress.
func (s *TicketService) Start(ctx context.Context, id uint64) (*model.Ticket, error) {
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND status = ?", id, model.TicketStatusClaimed).
		Update("status", model.TicketStatusInProgress)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.stateConflict(ctx, id)
	}
	return s.GetByID(ctx, id)
}

// AddCohelper назначает ко-хелпера; повторное назначение перезаписывает.
func (s *TicketService) AddCohelper(ctx context.Context, id uint64, cohelperID string) (*model.Ticket, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.HelperID != nil && *t.HelperID == cohelperID {
		return nil, errs.ErrSameAsMainHelper
	}
	if t.Status.Terminal() {
		return nil, &errs.InvalidStateError{TicketID: id, Status: t.Status}
	}
	if err := s.db.WithContext(ctx).Model(t).Update("cohelper_id", cohelperID).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Merge вливает source в target: source терминально становится merged,
// target получает source в merged_from. Обе записи меняются в одной
// транзакции; строки блокируются в порядке id во избежание дедлока.
func (s *TicketService) Merge(ctx context.Context, sourceID, targetID uint64) (*model.Ticket, error) {
	if sourceID == targetID {
		return nil, errs.ErrSelfMerge
	}

	var source, target model.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock in id order so concurrent merges cannot deadlock
		if sourceID < targetID {
			if err := lockTicket(tx, sourceID, &source); err != nil {
				return err
			}
			if err := lockTicket(tx, targetID, &target); err != nil {
				return err
			}
		} else {
			if err := lockTicket(tx, targetID, &target); err != nil {
				return err
			}
			if err := lockTicket(tx, sourceID, &source); err != nil {
				return err
			}
		}

		if source.Status.Terminal() {
			return &errs.InvalidStateError{TicketID: sourceID, Status: source.Status}
		}
		if target.Status.Terminal() {
			return &errs.InvalidStateError{TicketID: targetID, Status: target.Status}
		}
		if source.Mode != target.Mode {
			return &errs.ModeMismatchError{SourceMode: source.Mode, TargetMode: target.Mode}
		}

		if err := tx.Model(&model.Ticket{}).
			Where("id = ?", sourceID).
			Updates(map[string]interface{}{
				"status":      model.TicketStatusMerged,
				"merged_into": targetID,
			}).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"UPDATE tickets SET merged_from = array_append(merged_from, ?) WHERE id = ?",
			sourceID, targetID,
		).Error; err != nil {
			return err
		}
		return tx.First(&target, targetID).Error
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// Complete закрывает carry: условный переход claimed|in_progress →
// completed и запись carry_proof в той же транзакции. Состав участников
// собирается по одному уровню merged_from; completedBy подставляется
// хелпером, если тикет так и не был закреплён формально.
func (s *TicketService) Complete(ctx context.Context, id uint64, completedBy, screenshotURL string) (*model.Ticket, *model.Proof, error) {
	var (
		ticket model.Ticket
		proof  model.Proof
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTicket(tx, id, &ticket); err != nil {
			return err
		}
		// waiting must be claimed first; completed/closed/merged are terminal
		if !ticket.Status.Claimed() {
			return &errs.InvalidStateError{TicketID: id, Status: ticket.Status}
		}

		completedAt := s.now().UTC()
		res := tx.Model(&model.Ticket{}).
			Where("id = ? AND status IN ?", id, []model.TicketStatus{model.TicketStatusClaimed, model.TicketStatusInProgress}).
			Updates(map[string]interface{}{
				"status":       model.TicketStatusCompleted,
				"completed_at": completedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &errs.InvalidStateError{TicketID: id, Status: ticket.Status}
		}

		parts, err := participants(tx, &ticket, completedBy)
		if err != nil {
			return err
		}
		proof = model.Proof{
			TicketIDs:     toInt64s(parts.TicketIDs),
			HelperIDs:     parts.HelperIDs,
			PlayerIDs:     parts.PlayerIDs,
			Mode:          ticket.Mode,
			ScreenshotURL: screenshotURL,
			CompletedAt:   completedAt,
		}
		if err := tx.Create(&proof).Error; err != nil {
			return err
		}
		return tx.First(&ticket, id).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &ticket, &proof, nil
}

// Close допустим из любого нетерминального статуса.
func (s *TicketService) Close(ctx context.Context, id uint64, reason string) (*model.Ticket, error) {
	if reason == "" {
		reason = "No reason provided"
	}
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND status IN ?", id, activeStatuses()).
		Updates(map[string]interface{}{
			"status":       model.TicketStatusClosed,
			"close_reason": reason,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.stateConflict(ctx, id)
	}
	return s.GetByID(ctx, id)
}

// UpdateAvailability переписывает окно доступности ожидающего тикета.
func (s *TicketService) UpdateAvailability(ctx context.Context, id uint64, w availability.Window) (*model.Ticket, error) {
	end := w.End
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ? AND status = ?", id, model.TicketStatusWaiting).
		Updates(map[string]interface{}{
			"available_type":    model.AvailabilityType(w.Type),
			"available_start":   w.Start,
			"available_end":     &end,
			"available_display": w.Display,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.stateConflict(ctx, id)
	}
	return s.GetByID(ctx, id)
}

// stateConflict превращает непрошедший условный UPDATE в NotFound либо
// InvalidState с фактическим статусом.
func (s *TicketService) stateConflict(ctx context.Context, id uint64) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &errs.InvalidStateError{TicketID: id, Status: t.Status}
}

func (s *TicketService) queuePosition(ctx context.Context, t *model.Ticket) (int, error) {
	var ahead int64
	err := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("status = ? AND mode = ? AND created_at < ?", model.TicketStatusWaiting, t.Mode, t.CreatedAt).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// participants собирает состав carry: тикет, все влитые в него (один
// уровень merged_from), их игроки и оба хелпера.
func participants(tx *gorm.DB, t *model.Ticket, fallbackHelper string) (*model.Participants, error) {
	parts := &model.Participants{
		TicketIDs: []uint64{t.ID},
		PlayerIDs: []string{t.RequesterID},
	}
	for _, mergedID := range t.MergedFrom {
		var merged model.Ticket
		if err := tx.First(&merged, uint64(mergedID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		parts.TicketIDs = append(parts.TicketIDs, merged.ID)
		parts.PlayerIDs = append(parts.PlayerIDs, merged.RequesterID)
	}
	helper := fallbackHelper
	if t.HelperID != nil {
		helper = *t.HelperID
	}
	parts.HelperIDs = []string{helper}
	if t.CohelperID != nil {
		parts.HelperIDs = append(parts.HelperIDs, *t.CohelperID)
	}
	return parts, nil
}

func lockTicket(tx *gorm.DB, id uint64, dst *model.Ticket) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrTicketNotFound
	}
	return err
}

func activeStatuses() []model.TicketStatus {
	return []model.TicketStatus{
		model.TicketStatusWaiting,
		model.TicketStatusClaimed,
		model.TicketStatusInProgress,
	}
}

func toInt64s(ids []uint64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
