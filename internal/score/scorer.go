package score

import "git.lost.host/meutraa/fall/internal/game"

// Recorder keeps the session's raw inputs so a run can be replayed
// deterministically against a fresh state. Nothing is written to disk;
// the record lives and dies with the process.
type Recorder interface {
	Record(e game.Event)
	Inputs() []game.Tap
	Reset()
}

// History is one recorded run in per-lane compact form.
type History struct {
	Inputs []InputsCompact
}

// InputsCompact groups a lane's press and release times.
type InputsCompact struct {
	Lane     int
	Presses  []float64
	Releases []float64
}
