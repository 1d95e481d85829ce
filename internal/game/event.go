package game

// Event is the closed set of inputs the engine folds over. Every source
// (clock, chart playback, keyboard, restart key) is merged into one
// totally ordered stream of these before reaching Apply.
type Event interface {
	event()
}

// Tick carries the new elapsed time in seconds. Tick times must be
// monotonically non-decreasing.
type Tick struct {
	Time float64
}

// AddNote announces a parsed note entering active play. The engine mints
// its identifier here, not at parse time.
type AddNote struct {
	Note Note
}

// Tap is a key press or release on one of the lanes. Time is the elapsed
// time the input arrived at, recorded for replays; the engine itself
// judges by note position, not tap time.
type Tap struct {
	Lane int
	Down bool
	Time float64
}

// Restart throws the state away, keeping only the high score and chart.
type Restart struct{}

// ChartLoaded attaches the full parsed chart once, at stream start. It is
// re-issued after a restart because the stream is rebuilt from scratch.
type ChartLoaded struct {
	Chart *Chart
}

func (Tick) event()        {}
func (AddNote) event()     {}
func (Tap) event()         {}
func (Restart) event()     {}
func (ChartLoaded) event() {}

// Effects is the one-shot side effect list returned next to each state
// transition. The sink consumes it exactly once, so audio and element
// removal never re-trigger on a re-render.
type Effects struct {
	Play   []Note // notes that should start sounding
	Stop   []Note // sustain notes whose audio must stop
	Remove []int  // identifiers whose visuals go away
}
