package game

// Phase is a match's lifecycle state. FINISHED is terminal.
type Phase string

const (
	PhaseStarting Phase = "STARTING"
	PhasePlaying  Phase = "PLAYING"
	PhaseFinished Phase = "FINISHED"
)

// Slot is a match-local seat. Slot 1 always breaks.
type Slot int

const (
	NoSlot Slot = 0
	Slot1  Slot = 1
	Slot2  Slot = 2
)

func (s Slot) Valid() bool { return s == Slot1 || s == Slot2 }

// Other returns the opposing seat.
func (s Slot) Other() Slot {
	if s == Slot1 {
		return Slot2
	}
	return Slot1
}
