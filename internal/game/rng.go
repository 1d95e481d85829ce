package game

// Filler notes queued on a whiffed press are random but reproducible: the
// generator is a plain linear congruential generator seeded from the
// elapsed time, so a replay of the same event stream produces the same
// filler pitches.
const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgModulus    = 1 << 31
)

type lcg struct {
	seed int64
}

func newLCG(seed int64) *lcg {
	return &lcg{seed: seed % lcgModulus}
}

func (l *lcg) next() int64 {
	l.seed = (l.seed*lcgMultiplier + lcgIncrement) % lcgModulus
	if l.seed < 0 {
		l.seed += lcgModulus
	}
	return l.seed
}

func (l *lcg) float() float64 {
	return float64(l.next()) / float64(lcgModulus)
}

// fillerNote builds a background note at the hit bar keyed to the given
// elapsed time. It exists only to keep audio continuous; it never scores
// and never expires.
func fillerNote(elapsed float64, instrument string) Note {
	r := newLCG(int64(elapsed * 1000))
	return Note{
		Instrument: instrument,
		Velocity:   0.25 + 0.5*r.float(),
		Pitch:      36 + int(r.next()%48),
		Start:      elapsed,
		End:        elapsed,
		Position:   Baseline,
	}
}
