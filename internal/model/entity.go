package model

import (
	"time"

	"github.com/lib/pq"
)

type TicketStatus string

const (
	TicketStatusWaiting    TicketStatus = "waiting"
	TicketStatusClaimed    TicketStatus = "claimed"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusMerged     TicketStatus = "merged"
)

// Terminal reports whether no further transitions are allowed from s.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusClosed || s == TicketStatusMerged
}

// Claimed treats in_progress as claimed: both hold the ticket for a helper.
func (s TicketStatus) Claimed() bool {
	return s == TicketStatusClaimed || s == TicketStatusInProgress
}

type AvailabilityType string

const (
	AvailabilityNow       AvailabilityType = "now"
	AvailabilitySoon      AvailabilityType = "soon"
	AvailabilityLater     AvailabilityType = "later"
	AvailabilityScheduled AvailabilityType = "scheduled"
)

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// Session — окно приёма тикетов. Максимум одна открытая сессия
// (partial unique index на status = 'open').
type Session struct {
	ID          uint64        `gorm:"primaryKey" json:"id"`
	Status      SessionStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	OpenedAt    time.Time     `json:"opened_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
	OpenedBy    string        `gorm:"type:varchar(64)" json:"opened_by"`
	TicketCount int           `gorm:"not null;default:0" json:"ticket_count"`
}

// Ticket — заявка на carry. merged_into и status = 'merged' выставляются
// вместе и после этого не меняются.
type Ticket struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	RequesterID string `gorm:"index;not null" json:"requester_id"`
	PlayerName  string `gorm:"type:varchar(64);not null" json:"player_name"`
	Level       int    `gorm:"not null" json:"level"`
	Mode        string `gorm:"type:varchar(32);index;not null" json:"mode"`

	Timezone       string  `gorm:"type:varchar(64)" json:"timezone,omitempty"`
	TimezoneOffset float64 `json:"timezone_offset"`

	AvailableType    AvailabilityType `gorm:"type:varchar(16);not null;default:'now'" json:"available_type"`
	AvailableStart   time.Time        `gorm:"not null" json:"available_start"`
	AvailableEnd     *time.Time       `json:"available_end,omitempty"`
	AvailableDisplay string           `gorm:"type:varchar(128)" json:"available_display,omitempty"`

	PrivateServer bool `gorm:"not null;default:true" json:"private_server"`
	CanChat       bool `gorm:"not null;default:true" json:"can_chat"`

	Status     TicketStatus `gorm:"type:varchar(16);index;not null;default:'waiting'" json:"status"`
	HelperID   *string      `gorm:"index" json:"helper_id,omitempty"`
	CohelperID *string      `json:"cohelper_id,omitempty"`

	MergedInto *uint64       `json:"merged_into,omitempty"`
	MergedFrom pq.Int64Array `gorm:"type:bigint[];not null;default:'{}'" json:"merged_from"`

	SessionID   uint64     `gorm:"index;not null" json:"session_id"`
	CreatedAt   time.Time  `json:"created_at"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CloseReason string     `gorm:"type:varchar(255)" json:"close_reason,omitempty"`
}

// AvailabilityWindowEnd подставляет start+4h для открытых окон.
func (t *Ticket) AvailabilityWindowEnd() time.Time {
	if t.AvailableEnd != nil {
		return *t.AvailableEnd
	}
	return t.AvailableStart.Add(4 * time.Hour)
}

// Proof — неизменяемая запись о выполненном carry, включая слитые тикеты.
type Proof struct {
	ID            uint64         `gorm:"primaryKey" json:"id"`
	TicketIDs     pq.Int64Array  `gorm:"type:bigint[];not null" json:"ticket_ids"`
	HelperIDs     pq.StringArray `gorm:"type:text[];not null" json:"helper_ids"`
	PlayerIDs     pq.StringArray `gorm:"type:text[];not null" json:"player_ids"`
	Mode          string         `gorm:"type:varchar(32);not null" json:"mode"`
	ScreenshotURL string         `gorm:"type:varchar(512)" json:"screenshot_url,omitempty"`
	ProofRef      string         `gorm:"type:varchar(128)" json:"proof_ref,omitempty"`
	CompletedAt   time.Time      `json:"completed_at"`
}

func (Proof) TableName() string { return "carry_proofs" }

// BlacklistEntry блокирует создание тикетов для requester_id.
type BlacklistEntry struct {
	RequesterID string    `gorm:"primaryKey;type:varchar(64)" json:"requester_id"`
	Reason      string    `gorm:"type:varchar(255)" json:"reason,omitempty"`
	BlockedBy   string    `gorm:"type:varchar(64);not null" json:"blocked_by"`
	BlockedAt   time.Time `json:"blocked_at"`
}

func (BlacklistEntry) TableName() string { return "blacklist" }

// Mode — категория carry с минимальным уровнем для входа.
type Mode struct {
	Value    string `json:"value"`
	Name     string `json:"name"`
	MinLevel int    `json:"min_level"`
}

// SessionStats — агрегаты по тикетам сессии.
type SessionStats struct {
	SessionID    uint64 `json:"session_id"`
	TotalTickets int64  `json:"total_tickets"`
	Waiting      int64  `json:"waiting"`
	Claimed      int64  `json:"claimed"`
	Completed    int64  `json:"completed"`
	Closed       int64  `json:"closed"`
}

// Participants — состав завершённого carry: исходный тикет плюс все
// влитые в него (один уровень merged_from).
type Participants struct {
	TicketIDs []uint64 `json:"ticket_ids"`
	PlayerIDs []string `json:"player_ids"`
	HelperIDs []string `json:"helper_ids"`
}
