// Package errs — типизированные ошибки доменного ядра. Хендлеры мапят их
// в HTTP-коды через errors.Is / errors.As.
package errs

import (
	"errors"
	"fmt"

	"github.com/carryhub/carry-service/internal/model"
)

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrSessionNotFound = errors.New("session not found")

	ErrInvalidState       = errors.New("operation not allowed in current status")
	ErrAlreadyClaimed     = errors.New("ticket already claimed")
	ErrSelfMerge          = errors.New("cannot merge a ticket with itself")
	ErrModeMismatch       = errors.New("tickets have different modes")
	ErrSameAsMainHelper   = errors.New("cohelper is already the main helper")
	ErrSessionClosed      = errors.New("no open session")
	ErrSessionAlreadyOpen = errors.New("a session is already open")
	ErrSessionNotOpen     = errors.New("session is not open")
	ErrBlacklisted        = errors.New("requester is blacklisted")
	ErrLevelTooLow        = errors.New("level below mode requirement")
	ErrUnknownMode        = errors.New("unknown mode")
	ErrActiveTicketExists = errors.New("requester already has an active ticket")
)

// InvalidStateError сохраняет статус, из-за которого операция отклонена.
type InvalidStateError struct {
	TicketID uint64
	Status   model.TicketStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("ticket #%d: operation not allowed in status %q", e.TicketID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// AlreadyClaimedError называет держателя тикета — сообщение обязано
// указывать текущего хелпера.
type AlreadyClaimedError struct {
	TicketID uint64
	HelperID string
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("ticket #%d is already claimed by %s", e.TicketID, e.HelperID)
}

func (e *AlreadyClaimedError) Is(target error) bool { return target == ErrAlreadyClaimed }

// ModeMismatchError — режимы сливаемых тикетов не совпали.
type ModeMismatchError struct {
	SourceMode string
	TargetMode string
}

func (e *ModeMismatchError) Error() string {
	return fmt.Sprintf("cannot merge tickets with different modes (%s vs %s)", e.SourceMode, e.TargetMode)
}

func (e *ModeMismatchError) Is(target error) bool { return target == ErrModeMismatch }

// LevelTooLowError — уровень игрока ниже минимума режима.
type LevelTooLowError struct {
	Mode     string
	Required int
	Actual   int
}

func (e *LevelTooLowError) Error() string {
	return fmt.Sprintf("mode %s requires level %d+, got %d", e.Mode, e.Required, e.Actual)
}

func (e *LevelTooLowError) Is(target error) bool { return target == ErrLevelTooLow }

// BlacklistedError несёт причину блокировки.
type BlacklistedError struct {
	RequesterID string
	Reason      string
}

func (e *BlacklistedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("requester %s is blocked from creating tickets", e.RequesterID)
	}
	return fmt.Sprintf("requester %s is blocked from creating tickets: %s", e.RequesterID, e.Reason)
}

func (e *BlacklistedError) Is(target error) bool { return target == ErrBlacklisted }
