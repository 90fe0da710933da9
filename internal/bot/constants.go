package bot

import "time"

const (
	logPrefix = "[meshbot]"

	contentPreviewLen = 80

	// Duplicate suppression: the mesh re-delivers packets that arrive via
	// multiple repeaters within seconds of each other. Frames carry no
	// message ID, so a repeat of the same text counts as a duplicate only
	// inside this window; a deliberate resend later is answered again.
	// The seen set is trimmed in halves to stay bounded.
	duplicateWindow = 30 * time.Second
	seenMax         = 100
	seenKeep        = 50

	directoryWarmInterval = 10 * time.Minute
	broadcastTick         = time.Minute
)
