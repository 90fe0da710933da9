package router

import "time"

const (
	// MaxMessageChars is the hard outbound limit; LoRa payloads past this
	// are dropped by the radio firmware.
	MaxMessageChars = 280

	// contextNodeLimit bounds how many directory nodes ride along in an
	// LLM prompt.
	contextNodeLimit = 30

	// statusWindow is the activity cutoff for the status command.
	statusWindow = 7 * 24 * time.Hour

	// llmUnavailableNotice goes out whenever the LLM path fails. A
	// triggered message is never answered with silence.
	llmUnavailableNotice = "Brain offline, try again in a bit."
)
