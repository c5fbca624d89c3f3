package topup

import (
	"time"

	"github.com/google/uuid"

	"github.com/medora/medora-api/internal/domain/wallet"
)

// Status of a top-up request. pending is the only non-terminal state;
// approved and rejected are one-shot.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is an owner-initiated, admin-approved workflow object that moves
// credits from the admin pool into a wallet. Once resolved, the outcome is
// attributed to the acting admin via ResolvedBy.
type Request struct {
	ID         uuid.UUID        `db:"id" json:"id"`
	OwnerID    uuid.UUID        `db:"owner_id" json:"owner_id"`
	OwnerType  wallet.OwnerType `db:"owner_type" json:"owner_type"`
	Credits    int              `db:"credits" json:"credits"`
	Note       string           `db:"note" json:"note,omitempty"`
	AdminNote  string           `db:"admin_note" json:"admin_note,omitempty"`
	Status     Status           `db:"status" json:"status"`
	ResolvedBy *uuid.UUID       `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// ListFilter scopes request listings. Non-admin callers are always scoped
// to their own wallet.
type ListFilter struct {
	OwnerID   *uuid.UUID
	OwnerType *wallet.OwnerType
	Status    *Status
	Limit     int
	Offset    int
}
