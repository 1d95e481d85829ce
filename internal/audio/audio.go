package audio

import "git.lost.host/meutraa/fall/internal/game"

// Player is the audio half of the presentation sink. Play starts a
// note's sample; Stop ends a sustain note's loop by identifier. Both are
// fire-and-forget: playback failures are logged, never surfaced.
type Player interface {
	Init(samples map[string]string) error
	Play(n game.Note)
	Stop(id int)
}
