package game

// Chart is the parsed song, immutable once loaded. Notes are ordered by
// start time. NoteCount is the number of playable rows the parser kept,
// which the engine compares against its expired count to detect the end
// of the song.
type Chart struct {
	Notes     []Note
	NoteCount int
}

// Instrument returns the tag of the first note, used as the fallback
// voice for synthetic filler notes.
func (c *Chart) Instrument() string {
	if len(c.Notes) == 0 {
		return ""
	}
	return c.Notes[0].Instrument
}
