package render

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"
)

const defaultColor = "#1f77b4"

// SVGRenderer renders figures into standalone SVG documents.
type SVGRenderer struct{}

func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{}
}

// Render writes the figure as an SVG file at path.
func (r *SVGRenderer) Render(fig Figure, path string) error {
	doc := buildDoc(fig)

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create figure file %s", path)
	}
	defer file.Close()

	err = svgTemplate.Execute(file, doc)
	if err != nil {
		return errors.Wrapf(err, "unable to render figure %s", path)
	}

	return nil
}

type svgDoc struct {
	Width  int
	Height int
	Title  string
	TitleX int
	Panels []svgPanel
}

type svgPanel struct {
	X, Y, W, H float64
	XLabel     string
	YLabel     string
	LabelX     float64
	LabelY     float64
	YLabelX    float64
	YLabelY    float64
	Lines      []svgPolyline
	Circles    []svgCircle
	Ticks      []svgTick
	Legend     []svgLegend
}

type svgPolyline struct {
	Points string
	Stroke string
}

type svgCircle struct {
	CX, CY float64
	Fill   string
}

type svgTick struct {
	X, Y   float64
	Anchor string
	Label  string
}

type svgLegend struct {
	X, Y  float64
	Fill  string
	Label string
}

const (
	marginLeft   = 70.0
	marginRight  = 20.0
	marginTop    = 40.0
	marginBottom = 50.0
)

func buildDoc(fig Figure) svgDoc {
	cols := fig.Cols
	if cols == 0 {
		cols = 1
	}
	rows := fig.Rows
	if rows == 0 {
		rows = 1
	}
	width := fig.Width
	if width == 0 {
		width = 1600
	}
	height := fig.Height
	if height == 0 {
		height = 900
	}

	doc := svgDoc{
		Width:  width,
		Height: height,
		Title:  fig.Title,
		TitleX: width / 2,
	}

	cellW := float64(width) / float64(cols)
	cellH := float64(height-20) / float64(rows)

	for _, panel := range fig.Panels {
		span := panel.RowSpan
		if span == 0 {
			span = 1
		}
		rect := svgPanel{
			X: float64(panel.Col)*cellW + marginLeft,
			Y: 20 + float64(panel.Row)*cellH + marginTop,
			W: cellW - marginLeft - marginRight,
			H: float64(span)*cellH - marginTop - marginBottom,
		}
		doc.Panels = append(doc.Panels, buildPanel(panel, rect))
	}

	return doc
}

func buildPanel(panel Panel, rect svgPanel) svgPanel {
	rect.XLabel = panel.XLabel
	rect.YLabel = panel.YLabel
	rect.LabelX = rect.X + rect.W/2
	rect.LabelY = rect.Y + rect.H + 36
	rect.YLabelX = rect.X - 52
	rect.YLabelY = rect.Y + rect.H/2

	minX, maxX, minY, maxY, ok := bounds(panel.Series)
	if !ok {
		return rect
	}

	scaleX := func(x float64) float64 {
		return rect.X + (x-minX)/(maxX-minX)*rect.W
	}
	scaleY := func(y float64) float64 {
		return rect.Y + rect.H - (y-minY)/(maxY-minY)*rect.H
	}

	for _, series := range panel.Series {
		color := series.Color
		if color == "" {
			color = defaultColor
		}
		switch series.Kind {
		case Line:
			var b strings.Builder
			for _, pt := range series.Points {
				fmt.Fprintf(&b, "%.1f,%.1f ", scaleX(pt.X), scaleY(pt.Y))
			}
			rect.Lines = append(rect.Lines, svgPolyline{
				Points: strings.TrimSpace(b.String()),
				Stroke: color,
			})
		default:
			for _, pt := range series.Points {
				fill := pt.Color
				if fill == "" {
					fill = color
				}
				rect.Circles = append(rect.Circles, svgCircle{
					CX:   scaleX(pt.X),
					CY:   scaleY(pt.Y),
					Fill: fill,
				})
			}
		}
	}

	const tickCount = 4
	for i := 0; i <= tickCount; i++ {
		frac := float64(i) / tickCount
		xVal := minX + frac*(maxX-minX)
		yVal := minY + frac*(maxY-minY)
		rect.Ticks = append(rect.Ticks,
			svgTick{
				X:      scaleX(xVal),
				Y:      rect.Y + rect.H + 16,
				Anchor: "middle",
				Label:  tickLabel(xVal, panel.TimeAxis),
			},
			svgTick{
				X:      rect.X - 6,
				Y:      scaleY(yVal) + 4,
				Anchor: "end",
				Label:  tickLabel(yVal, false),
			},
		)
	}

	for i, entry := range panel.Legend {
		rect.Legend = append(rect.Legend, svgLegend{
			X:     rect.X + rect.W - 120,
			Y:     rect.Y + 16 + float64(i)*16,
			Fill:  entry.Color,
			Label: entry.Label,
		})
	}

	return rect
}

func bounds(series []Series) (minX, maxX, minY, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range series {
		for _, pt := range s.Points {
			minX = math.Min(minX, pt.X)
			maxX = math.Max(maxX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxY = math.Max(maxY, pt.Y)
			ok = true
		}
	}
	// degenerate ranges still need a nonzero span to scale against
	if maxX == minX {
		minX, maxX = minX-1, maxX+1
	}
	if maxY == minY {
		minY, maxY = minY-1, maxY+1
	}

	return minX, maxX, minY, maxY, ok
}

func tickLabel(v float64, timeAxis bool) string {
	if timeAxis {
		return time.Unix(0, int64(v*float64(time.Second))).UTC().Format("15:04:05")
	}

	return strconv.FormatFloat(v, 'g', 4, 64)
}

var svgTemplate = template.Must(template.New("figure").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" font-family="sans-serif" font-size="12">
<rect width="{{.Width}}" height="{{.Height}}" fill="#ffffff"/>
<text x="{{.TitleX}}" y="18" text-anchor="middle" font-size="16">{{.Title}}</text>
{{- range .Panels}}
<g>
<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" fill="none" stroke="#000000"/>
{{- range .Lines}}
<polyline points="{{.Points}}" fill="none" stroke="{{.Stroke}}" stroke-width="1.2"/>
{{- end}}
{{- range .Circles}}
<circle cx="{{.CX}}" cy="{{.CY}}" r="1.8" fill="{{.Fill}}"/>
{{- end}}
{{- range .Ticks}}
<text x="{{.X}}" y="{{.Y}}" text-anchor="{{.Anchor}}">{{.Label}}</text>
{{- end}}
{{- range .Legend}}
<rect x="{{.X}}" y="{{.Y}}" width="10" height="10" fill="{{.Fill}}"/>
<text x="{{.X}}" y="{{.Y}}" dx="14" dy="9">{{.Label}}</text>
{{- end}}
{{- if .XLabel}}<text x="{{.LabelX}}" y="{{.LabelY}}" text-anchor="middle">{{.XLabel}}</text>{{end}}
{{- if .YLabel}}<text x="{{.YLabelX}}" y="{{.YLabelY}}" text-anchor="middle" transform="rotate(-90 {{.YLabelX}} {{.YLabelY}})">{{.YLabel}}</text>{{end}}
</g>
{{- end}}
</svg>
`))
