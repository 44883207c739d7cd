// Package drawer renders a node graph as a DOT file for inspection of the
// wiring the library built from a log.
package drawer

import (
	"os"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
)

// KindColor returns the fill color used for a node kind.
func KindColor(kind string) string {
	var r, g, b uint8
	switch kind {
	case "source":
		r, g, b = 198, 239, 206
	case "merge":
		r, g, b = 255, 235, 156
	case "foreach":
		r, g, b = 189, 215, 238
	case "split":
		r, g, b = 226, 207, 243
	case "sink":
		r, g, b = 217, 217, 217
	default:
		r, g, b = 255, 255, 255
	}

	c, err := colors.RGB(r, g, b)
	if err != nil {
		return "#ffffff"
	}

	return c.ToHEX().String()
}

// Write renders the node graph to a DOT file at path.
func Write(g graph.Graph[string, string], path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}
	defer file.Close()

	err = draw.DOT(g, file)
	if err != nil {
		return errors.Wrapf(err, "unable to render dot file %s", path)
	}

	return nil
}
