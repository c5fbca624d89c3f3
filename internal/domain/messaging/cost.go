package messaging

// segmentSize is the number of characters in one SMS segment. Pricing is
// one credit per segment per recipient.
const segmentSize = 160

// Segments returns how many segments a message body occupies.
func Segments(body string) int {
	if len(body) == 0 {
		return 0
	}
	return (len(body) + segmentSize - 1) / segmentSize
}

// QuoteCost returns the total credit cost of sending body to
// recipientCount recipients.
func QuoteCost(body string, recipientCount int) int {
	if recipientCount <= 0 {
		return 0
	}
	return Segments(body) * recipientCount
}
