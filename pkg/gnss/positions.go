package gnss

import (
	"context"
	"math"
	"time"

	"github.com/im7mortal/UTM"

	"github.com/rovlab/go-dataflow/pkg/bag"
	"github.com/rovlab/go-dataflow/pkg/dataflow"
)

// AddPositions adds one position-extractor instance per fix topic stream.
// Each instance normalizes its fixes against the local origin set by the
// first valid record and emits one Positions aggregate at stream end.
// Records with NaN coordinates or no status are counted and skipped, never
// failed on; the count surfaces as a single warning per instance.
func AddPositions(g *dataflow.Graph, streams []bag.TopicStream) ([]*dataflow.Stream[Positions], error) {
	return dataflow.AddForeach(g, "gnss.positions", streams, topicKey, extractPositions,
		dataflow.ForeachParent(topicParent))
}

func topicKey(ts bag.TopicStream) string {
	return ts.Topic.Name
}

func topicParent(ts bag.TopicStream) string {
	return ts.Msgs.Name()
}

func extractPositions(ctx context.Context, p *dataflow.Proc[Positions], ts bag.TopicStream) error {
	if err := p.SetHeader(dataflow.Header{Title: ts.Topic.Name}); err != nil {
		return err
	}

	var (
		eOffset, nOffset, uOffset float64
		haveOrigin                bool
		skipped                   int
		values                    []PositionSample
	)

	for {
		msg, ok, err := ts.Msgs.Pull(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		fix, ok := decodeAs[NavSatFix](ts.Decode, msg.Data)
		if !ok {
			skipped++

			continue
		}
		if fix.Status == nil ||
			math.IsNaN(fix.Longitude) ||
			math.IsNaN(fix.Latitude) ||
			math.IsNaN(fix.Altitude) {
			skipped++

			continue
		}

		east, north, _, _, err := UTM.FromLatLon(fix.Latitude, fix.Longitude, fix.Latitude >= 0)
		if err != nil {
			skipped++

			continue
		}
		if !haveOrigin {
			eOffset = east
			nOffset = north
			uOffset = fix.Altitude
			haveOrigin = true
		}

		values = append(values, PositionSample{
			Time:   timeToSeconds(msg.Time),
			Lat:    fix.Latitude,
			Lon:    fix.Longitude,
			Alt:    fix.Altitude,
			East:   east - eOffset,
			North:  north - nOffset,
			Up:     fix.Altitude - uOffset,
			Status: fix.Status.Status,
			CovRMS: math.Sqrt(fix.PositionCovariance[0]),
		})
	}

	if skipped > 0 {
		p.AddSkipped(skipped)
		p.Warn("skipped erroneous messages", "count", skipped)
	}

	return p.Push(ctx, Positions{Topic: ts.Topic.Name, Values: values})
}

// decodeAs runs the resolved decoder and narrows the record. Anything that
// does not decode to the expected type counts as a malformed record.
func decodeAs[T any](decode bag.Decoder, data []byte) (*T, bool) {
	if decode == nil {
		return nil, false
	}
	rec, err := decode(data)
	if err != nil {
		return nil, false
	}
	typed, ok := rec.(*T)

	return typed, ok
}

func timeToSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
