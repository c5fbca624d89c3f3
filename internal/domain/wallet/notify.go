package wallet

import "time"

// lowBalanceNotifyInterval is the minimum gap between low-balance
// notifications for one wallet.
const lowBalanceNotifyInterval = 24 * time.Hour

// ShouldNotifyLowBalance reports whether a low-balance notification may be
// sent now, given when the last one went out. Kept pure so the debounce is
// testable apart from the balance mutation.
func ShouldNotifyLowBalance(lastNotifiedAt *time.Time, now time.Time) bool {
	if lastNotifiedAt == nil {
		return true
	}
	return now.Sub(*lastNotifiedAt) >= lowBalanceNotifyInterval
}
