package game

const (
	// LaneCount is the number of playable columns. Each lane is bound to
	// one key, and a note lands in lane Pitch mod LaneCount.
	LaneCount = 4

	// Baseline is the vertical position of the hit bar. A note spawns at
	// position 0 and expires once its position reaches the baseline.
	Baseline = 100.0

	// TravelSpeed is how many position units a note falls per second.
	TravelSpeed = 25.0

	// LeadSeconds is how long a note is on screen before it reaches the
	// hit bar, so the source feeding AddNote events must run this far
	// ahead of the audio.
	LeadSeconds = Baseline / TravelSpeed

	strikeWindow     = 0.93
	sustainThreshold = 1.0
	sustainSuccess   = 0.75
)

// Sustain carries the extra state of a note that must be held down.
// Only player notes longer than the sustain threshold have one.
type Sustain struct {
	Tail     float64 // rendered tail length, in position units
	Held     float64 // seconds the key has been held so far
	Duration float64 // seconds the key must be held in total
}

type Note struct {
	ID         int
	IsPlayer   bool    // false for background notes that play themselves
	Instrument string
	Velocity   float64 // normalized to [0,1]
	Pitch      int
	Start      float64 // chart-relative seconds
	End        float64

	// This is state
	Position float64 // 0 at spawn, Baseline at the hit bar
	Sustain  *Sustain
}

func (n *Note) Lane() int {
	l := n.Pitch % LaneCount
	if l < 0 {
		l += LaneCount
	}
	return l
}

func (n *Note) Duration() float64 {
	return n.End - n.Start
}

// Strikeable reports whether the note is close enough to the hit bar for
// a tap to count. The window opens at a fixed fraction of the baseline
// and, because expired notes leave the active set, closes one tick after
// the note passes the bar.
func (n *Note) Strikeable() bool {
	return n.Position >= Baseline*strikeWindow
}

// advanced returns a copy of the note moved down by adv position units.
// The sustain tail grows at the same rate until its rendered length
// covers the note's required duration, then stops while the head keeps
// moving, which is what shrinks the bar on screen.
func (n Note) advanced(adv float64) Note {
	n.Position += adv
	if nil != n.Sustain {
		s := *n.Sustain
		s.Tail += adv
		if max := s.Duration * TravelSpeed; s.Tail > max {
			s.Tail = max
		}
		n.Sustain = &s
	}
	return n
}
