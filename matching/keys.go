// Package matching owns the crush ledger workflow: recording one-directional
// crushes, detecting when a pair becomes mutual, and fanning the resulting
// notifications out to both sides.
package matching

import "strings"

// channelSeparator joins the two uids of a chat channel key. Identity-provider
// uids are alphanumeric, so "_" can never appear inside an id.
const channelSeparator = "_"

// ChannelID returns the canonical chat channel key for a pair of users. The
// ids are sorted before joining, so ChannelID(a, b) == ChannelID(b, a) and
// either side of a match addresses the same message log.
func ChannelID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + channelSeparator + b
}

// PairKey is the canonical, order-independent identifier for a user pair. It
// keys the per-pair send lock and the mutual notification ids.
func PairKey(a, b string) string {
	return ChannelID(a, b)
}

// SanitizeEmail converts an email address into a form usable as a realtime
// database path segment, where a literal "." is not allowed. Kept for the
// legacy inbox paths exported alongside notifications.
func SanitizeEmail(email string) string {
	return strings.ReplaceAll(email, ".", ",")
}

// crushNotificationID is the deterministic inbox id for a plain one-way crush
// notification. One crush record, one inbox entry, no matter how often the
// sender re-sends.
func crushNotificationID(senderID, targetID string) string {
	return "crush:" + senderID + ":" + targetID
}

// mutualNotificationID is the deterministic inbox id for one recipient's side
// of a mutual match event.
func mutualNotificationID(pairKey, recipientID string) string {
	return "mutual:" + pairKey + ":" + recipientID
}
