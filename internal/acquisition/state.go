package acquisition

// State is the progress of a single tile acquisition. States only ever
// advance in declaration order, a finished state is final.
type State int

// Acquisition states
const (
	NotStarted State = iota
	CacheHit
	Downloading
	Decoded
	Failed
	Cancelled
)

var stateNames = [...]string{"NotStarted", "CacheHit", "Downloading", "Decoded", "Failed", "Cancelled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// HasFinished reports whether s is one of Decoded, Failed or Cancelled
func (s State) HasFinished() bool {
	return s == Decoded || s == Failed || s == Cancelled
}

// canTransition reports whether from -> to is a valid transition
func canTransition(from, to State) bool {
	if from.HasFinished() || to <= from {
		return false
	}

	switch to {
	case CacheHit, Downloading:
		return from == NotStarted
	case Decoded:
		return from == CacheHit || from == Downloading
	case Failed:
		return from == Downloading || from == NotStarted
	case Cancelled:
		return true
	}

	return false
}
