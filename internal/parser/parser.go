package parser

import "git.lost.host/meutraa/fall/internal/game"

type Parser interface {
	Parse(file string) (*game.Chart, error)
}
