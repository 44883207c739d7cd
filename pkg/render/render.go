// Package render describes composite figures independently of any rendering
// backend and ships a plain SVG renderer. A figure is a grid of panels, each
// holding scatter or line series; backends only need to honor Renderer.
package render

// SeriesKind selects how a series is drawn.
type SeriesKind string

const (
	Scatter SeriesKind = "scatter"
	Line    SeriesKind = "line"
)

// Point is one sample of a series. Color optionally overrides the series
// color, hex encoded.
type Point struct {
	X, Y  float64
	Color string
}

// Series is one plotted data set within a panel.
type Series struct {
	Kind   SeriesKind
	Color  string
	Points []Point
}

// LegendEntry is one color/label pair shown in a panel legend.
type LegendEntry struct {
	Color string
	Label string
}

// Panel is one cell of the figure grid. RowSpan zero means one row. When
// TimeAxis is set the x values are unix seconds and ticks are rendered as
// hour:minute:second.
type Panel struct {
	Row, Col int
	RowSpan  int
	XLabel   string
	YLabel   string
	TimeAxis bool
	Legend   []LegendEntry
	Series   []Series
}

// Figure is a renderer-independent description of a composite plot laid out
// on a column grid.
type Figure struct {
	Title  string
	Width  int
	Height int
	Cols   int
	Rows   int
	Panels []Panel
}

// Renderer turns a figure into a file artifact. Implementations report
// failure instead of leaving a partially written artifact behind silently.
type Renderer interface {
	Render(fig Figure, path string) error
}
