package gnss

import (
	"context"
	"math"

	"github.com/rovlab/go-dataflow/pkg/dataflow"
)

// AddTrajectory derives the GeoJSON trajectory overlay from a positions
// stream. With no position data at all the node aborts; the map section
// downstream treats that as "no map".
func AddTrajectory(g *dataflow.Graph, positions *dataflow.Stream[Positions]) (*dataflow.Stream[GeoJSON], error) {
	return dataflow.AddNode(g, "gnss.trajectory", positions, extractTrajectory)
}

func extractTrajectory(ctx context.Context, p *dataflow.Proc[GeoJSON], in *dataflow.Stream[Positions]) error {
	pos, ok, err := in.Pull(ctx)
	if err != nil {
		return err
	}
	if err := dataflow.Exhaust(ctx, in); err != nil {
		return err
	}
	if !ok {
		return dataflow.ErrAbort
	}

	coordinates := make([][]float64, 0, len(pos.Values))
	for _, v := range pos.Values {
		if math.IsNaN(v.Lat) || math.IsInf(v.Lat, 0) {
			continue
		}
		coordinates = append(coordinates, []float64{v.Lon, v.Lat})
	}
	if len(coordinates) == 0 {
		return dataflow.ErrAbort
	}

	return p.Push(ctx, GeoJSON{
		"type":        "LineString",
		"coordinates": coordinates,
	})
}
