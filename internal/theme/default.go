package theme

import "fmt"

type DefaultTheme struct {
}

type rgb struct {
	R, G, B uint8
}

var (
	noteSyms = [...]string{"⬤", "⬤", "⬤", "⬤"}
	headSyms = [...]string{"◉", "◉", "◉", "◉"}
	tailSym  = "│"
	barSyms  = [...]string{"-", "-", "-", "-"}

	laneColors = [...]rgb{
		{236, 30, 0},  // red
		{0, 118, 236}, // blue
		{236, 195, 0}, // yellow
		{106, 0, 236}, // purple
	}
)

func colored(c rgb, sym string) string {
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, sym)
}

func (t *DefaultTheme) RenderNote(lane int) string {
	return colored(laneColors[lane%len(laneColors)], noteSyms[lane%len(noteSyms)])
}

func (t *DefaultTheme) RenderSustainHead(lane int) string {
	return colored(laneColors[lane%len(laneColors)], headSyms[lane%len(headSyms)])
}

func (t *DefaultTheme) RenderSustainTail(lane int) string {
	return colored(laneColors[lane%len(laneColors)], tailSym)
}

func (t *DefaultTheme) RenderHitField(lane int) string {
	return barSyms[lane%len(barSyms)]
}
