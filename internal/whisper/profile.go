package whisper

// Profile pins the decoding configuration for a run. The defaults are tuned
// for short single-utterance clips; hosts targeting longer audio can loosen
// them.
type Profile struct {
	// SingleSegment disables segment-boundary search so the whole utterance
	// decodes into one segment.
	SingleSegment bool
	// TokenTimestamps enables timestamp token emission during decoding.
	TokenTimestamps bool
	// BeamSize selects the decoder search width; 1 means greedy.
	BeamSize int
	// KeepContext reuses prior decoding context between runs.
	KeepContext bool
}

// LowLatencyProfile is the single-utterance configuration tuned for short
// clips: greedy decoding, one segment, no timestamp tokens, no carried
// context.
func LowLatencyProfile() Profile {
	return Profile{
		SingleSegment:   true,
		TokenTimestamps: false,
		BeamSize:        1,
		KeepContext:     false,
	}
}

// BatchProfile trades latency for segmentation quality on longer audio.
func BatchProfile() Profile {
	return Profile{
		SingleSegment:   false,
		TokenTimestamps: true,
		BeamSize:        1,
		KeepContext:     false,
	}
}
