package game

const (
	baseMultiplier = 1.0
	multiplierStep = 0.2
	comboBlock     = 10
)

// State is the whole game at one instant. Apply replaces it wholesale on
// every event; nothing outside this package mutates it. The three expired
// collections are kept separate even though they only matter as a count,
// because folding them into one set invites double counting across
// restarts.
type State struct {
	Time       float64
	Score      int
	Multiplier float64
	Combo      int
	HighScore  int // monotonic max, survives restarts
	Activated  int // notes ever activated, mints identifiers
	Expired    int // cumulative count of notes done with
	Done       bool

	Chart *Chart

	Notes    []Note // active simple notes, still falling
	Sustains []Note // active sustain notes, not yet struck
	Playable []Note // simple notes that just became eligible to sound
	Held     []Note // sustain notes currently pressed

	ExpiredNotes    []Note // simple notes that crossed the bar this tick
	ExpiredSustains []Note // sustain notes that crossed the bar unheld this tick
	ExpiredHeld     []Note // sustain notes finished since the last tick

	Resolved map[int]bool // identifiers the player has already used up
}

func NewState() State {
	return State{
		Multiplier: baseMultiplier,
		Resolved:   map[int]bool{},
	}
}

// Remaining is how many chart notes are still unaccounted for.
func (s *State) Remaining() int {
	if nil == s.Chart {
		return 0
	}
	r := s.Chart.NoteCount - s.Expired
	if r < 0 {
		r = 0
	}
	return r
}

func appendNotes(notes []Note, extra ...Note) []Note {
	out := make([]Note, 0, len(notes)+len(extra))
	out = append(out, notes...)
	return append(out, extra...)
}

func cloneResolved(set map[int]bool) map[int]bool {
	out := make(map[int]bool, len(set)+1)
	for id := range set {
		out[id] = true
	}
	return out
}
