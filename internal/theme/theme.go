package theme

type Theme interface {
	RenderNote(lane int) string
	RenderSustainHead(lane int) string
	RenderSustainTail(lane int) string
	RenderHitField(lane int) string
}
