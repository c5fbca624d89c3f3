package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// OwnerType identifies which side of the platform owns a wallet.
type OwnerType string

const (
	OwnerTypeClinic OwnerType = "clinic"
	OwnerTypeDoctor OwnerType = "doctor"
)

// Direction of a ledger entry.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Ledger reasons written by the core flows.
const (
	ReasonSMSSend       = "sms_send"
	ReasonTopupApproved = "topup_approved"
	ReasonManualCredit  = "manual_credit"
)

// Wallet is a tenant's spendable credit balance, keyed by the unique
// (owner_id, owner_type) pair and created lazily on first access.
// Invariant: Balance == TotalPurchased - TotalSent.
type Wallet struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	OwnerID              uuid.UUID  `db:"owner_id" json:"owner_id"`
	OwnerType            OwnerType  `db:"owner_type" json:"owner_type"`
	Balance              int        `db:"balance" json:"balance"`
	TotalPurchased       int        `db:"total_purchased" json:"total_purchased"`
	TotalSent            int        `db:"total_sent" json:"total_sent"`
	LowBalanceNotifiedAt *time.Time `db:"low_balance_notified_at" json:"low_balance_notified_at,omitempty"`
	IsActive             bool       `db:"is_active" json:"is_active"`
	LastTopupAt          *time.Time `db:"last_topup_at" json:"last_topup_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// LedgerEntry is an immutable audit record of one credit or debit.
// The signed sum of a wallet's entries equals its current balance.
type LedgerEntry struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	WalletID  uuid.UUID      `db:"wallet_id" json:"wallet_id"`
	OwnerID   uuid.UUID      `db:"owner_id" json:"owner_id"`
	OwnerType OwnerType      `db:"owner_type" json:"owner_type"`
	Direction Direction      `db:"direction" json:"direction"`
	Amount    int            `db:"amount" json:"amount"`
	Reason    string         `db:"reason" json:"reason"`
	Meta      types.JSONText `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
