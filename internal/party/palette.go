package party

import "github.com/charmbracelet/lipgloss"

const (
	SymbolSelf  = '★'
	SymbolOther = '■'
)

// Indicator is a stable (symbol, color) pair identifying a player's party.
type Indicator struct {
	Symbol rune
	Color  lipgloss.Color
}

// Visually distinct party colors, https://sashamaps.net/docs/resources/20-colors/
// plus white. Party index wraps around the palette.
var palette = []lipgloss.Color{
	lipgloss.Color("#E6194B"),
	lipgloss.Color("#3CB44B"),
	lipgloss.Color("#FFE119"),
	lipgloss.Color("#0082C8"),
	lipgloss.Color("#F58230"),
	lipgloss.Color("#911EB4"),
	lipgloss.Color("#46F0F0"),
	lipgloss.Color("#F032E6"),
	lipgloss.Color("#D2F53C"),
	lipgloss.Color("#FABED4"),
	lipgloss.Color("#008080"),
	lipgloss.Color("#DCBEFF"),
	lipgloss.Color("#AA6E28"),
	lipgloss.Color("#FFFAC8"),
	lipgloss.Color("#800000"),
	lipgloss.Color("#AAFFC3"),
	lipgloss.Color("#808000"),
	lipgloss.Color("#FFD7B4"),
	lipgloss.Color("#000080"),
	lipgloss.Color("#808080"),
	lipgloss.Color("#FFFFFF"),
}
