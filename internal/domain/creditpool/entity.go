package creditpool

import "time"

// Pool is the single process-wide record of purchased-but-unallocated
// messaging credits. There is at most one row (id = 1, enforced by a CHECK
// constraint); it is created lazily on first access and never deleted.
type Pool struct {
	ID               int        `db:"id" json:"-"`
	AvailableCredits int        `db:"available_credits" json:"available_credits"`
	TotalAdded       int        `db:"total_added" json:"total_added"`
	TotalConsumed    int        `db:"total_consumed" json:"total_consumed"`
	LowThreshold     int        `db:"low_threshold" json:"low_threshold"`
	LastTopupAt      *time.Time `db:"last_topup_at" json:"last_topup_at,omitempty"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// IsLow reports whether the pool has dropped to its alert threshold.
// Derived on read, never persisted.
func (p *Pool) IsLow() bool {
	return p.AvailableCredits <= p.LowThreshold
}

// Snapshot is the API representation of the pool including derived fields.
type Snapshot struct {
	Pool
	IsLow bool `json:"is_low"`
}
