package gnss

import (
	"context"
	"math"
	"strings"

	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/rovlab/go-dataflow/pkg/dataflow"
	"github.com/rovlab/go-dataflow/pkg/render"
)

// AddGNSSPlot adds the composer node: one multi-panel figure artifact built
// from the position aggregate and, when present, the orientation aggregate.
// Missing positions abort the node; missing orientations only drop the
// heading panel. A renderer failure aborts as well, so downstream sections
// never reference an unwritten artifact.
func AddGNSSPlot(g *dataflow.Graph, r render.Renderer, positions *dataflow.Stream[Positions], orientations *dataflow.Stream[Orientations]) (*dataflow.Stream[dataflow.File], error) {
	return dataflow.AddNode2(g, "gnss.plot", positions, orientations, composePlot(r))
}

func composePlot(r render.Renderer) dataflow.Node2Fn[Positions, Orientations, dataflow.File] {
	return func(ctx context.Context, p *dataflow.Proc[dataflow.File], gps *dataflow.Stream[Positions], orient *dataflow.Stream[Orientations]) error {
		pos, ok, err := gps.Pull(ctx)
		if err != nil {
			return err
		}
		if !ok {
			p.Logger().Error("no gps messages")
			if err := dataflow.Exhaust(ctx, orient); err != nil {
				return err
			}

			return dataflow.ErrAbort
		}
		ptitle, err := gps.Title(ctx)
		if err != nil {
			return err
		}
		if err := dataflow.Exhaust(ctx, gps); err != nil {
			return err
		}

		otitle := "none"
		var orientation []OrientationSample
		o, ok, err := orient.Pull(ctx)
		if err != nil {
			return err
		}
		if ok {
			otitle, err = orient.Title(ctx)
			if err != nil {
				return err
			}
			orientation = o.Values
			if err := dataflow.Exhaust(ctx, orient); err != nil {
				return err
			}
		} else {
			p.Warn("no orientations found")
		}

		title := ptitle + " with " + otitle
		if err := p.SetHeader(dataflow.Header{Title: title}); err != nil {
			return err
		}
		plotfile, err := p.MakeFile(PlotName(ptitle, otitle))
		if err != nil {
			return err
		}

		fig := buildFigure(title, finiteLatitude(pos.Values), orientation)
		if err := r.Render(fig, plotfile.Path); err != nil {
			p.Logger().Error("unable to render gnss figure", "error", err)

			return dataflow.ErrAbort
		}

		return p.Push(ctx, plotfile)
	}
}

// PlotName derives the plot artifact name purely from the two source
// titles, so identical inputs yield identical names across runs.
func PlotName(positionTitle, orientationTitle string) string {
	return sanitizeTitle(positionTitle) + "__" + sanitizeTitle(orientationTitle) + ".svg"
}

func sanitizeTitle(title string) string {
	return strings.TrimPrefix(strings.ReplaceAll(title, "/", ":"), ":")
}

func finiteLatitude(values []PositionSample) []PositionSample {
	out := make([]PositionSample, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v.Lat) || math.IsInf(v.Lat, 0) {
			continue
		}
		out = append(out, v)
	}

	return out
}

func buildFigure(title string, gps []PositionSample, orientation []OrientationSample) render.Figure {
	colorRTK := rgbHex(0, 200, 0)
	colorDGPS := rgbHex(230, 200, 0)
	colorSingle := rgbHex(220, 0, 0)

	scatter := render.Series{Kind: render.Scatter}
	for _, v := range gps {
		color := colorSingle
		switch {
		case v.Status >= StatusGBAS:
			color = colorRTK
		case v.Status == StatusSBAS:
			color = colorDGPS
		}
		scatter.Points = append(scatter.Points, render.Point{X: v.East, Y: v.North, Color: color})
	}

	fig := render.Figure{
		Title:  title,
		Width:  1600,
		Height: 900,
		Cols:   3,
		Rows:   2,
		Panels: []render.Panel{
			{
				Row: 0, Col: 0, RowSpan: 2,
				XLabel: "GNSS easting [m]",
				YLabel: "GNSS northing [m]",
				Legend: []render.LegendEntry{
					{Color: colorRTK, Label: "RTK"},
					{Color: colorDGPS, Label: "DGPS"},
					{Color: colorSingle, Label: "Single"},
				},
				Series: []render.Series{scatter},
			},
		},
	}

	if len(orientation) > 0 {
		yaw := render.Series{Kind: render.Line}
		for _, v := range orientation {
			yaw.Points = append(yaw.Points, render.Point{X: v.Time, Y: v.Yaw})
		}
		fig.Panels = append(fig.Panels, render.Panel{
			Row: 0, Col: 1,
			TimeAxis: true,
			YLabel:   "Heading over time [rad]",
			Series:   []render.Series{yaw},
		})
	}

	east := render.Series{Kind: render.Line}
	up := render.Series{Kind: render.Line}
	north := render.Series{Kind: render.Line}
	for _, v := range gps {
		east.Points = append(east.Points, render.Point{X: v.Time, Y: v.East})
		up.Points = append(up.Points, render.Point{X: v.Time, Y: v.Up})
		north.Points = append(north.Points, render.Point{X: v.Time, Y: v.North})
	}

	fig.Panels = append(fig.Panels,
		render.Panel{
			Row: 0, Col: 2,
			TimeAxis: true,
			YLabel:   "GNSS easting over time [m]",
			Series:   []render.Series{east},
		},
		render.Panel{
			Row: 1, Col: 1,
			TimeAxis: true,
			YLabel:   "GNSS height over time [m]",
			Series:   []render.Series{up},
		},
		render.Panel{
			Row: 1, Col: 2,
			TimeAxis: true,
			YLabel:   "GNSS northing over time [m]",
			Series:   []render.Series{north},
		},
	)

	return fig
}

func rgbHex(r, g, b uint8) string {
	c, err := colors.RGB(r, g, b)
	if err != nil {
		return "#000000"
	}

	return c.ToHEX().String()
}
