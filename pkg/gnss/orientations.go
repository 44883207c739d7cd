package gnss

import (
	"context"
	"math"

	"github.com/rovlab/go-dataflow/pkg/bag"
	"github.com/rovlab/go-dataflow/pkg/dataflow"
)

// AddImus adds one yaw-extractor instance per IMU topic stream. Records with
// a NaN quaternion x component are counted and skipped.
func AddImus(g *dataflow.Graph, streams []bag.TopicStream) ([]*dataflow.Stream[Orientations], error) {
	return dataflow.AddForeach(g, "gnss.imus", streams, topicKey, extractImu,
		dataflow.ForeachParent(topicParent))
}

func extractImu(ctx context.Context, p *dataflow.Proc[Orientations], ts bag.TopicStream) error {
	if err := p.SetHeader(dataflow.Header{Title: ts.Topic.Name}); err != nil {
		return err
	}

	var (
		skipped int
		values  []OrientationSample
	)

	for {
		msg, ok, err := ts.Msgs.Pull(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		imu, ok := decodeAs[Imu](ts.Decode, msg.Data)
		if !ok || math.IsNaN(imu.Orientation.X) {
			skipped++

			continue
		}

		values = append(values, OrientationSample{
			Time: timeToSeconds(msg.Time),
			Yaw:  YawAngle(imu.Orientation),
		})
	}

	if skipped > 0 {
		p.AddSkipped(skipped)
		p.Warn("skipped erroneous messages", "count", skipped)
	}

	return p.Push(ctx, Orientations{Topic: ts.Topic.Name, Values: values})
}

// AddNavSatOrients adds one direct-yaw extractor instance per topic stream.
// An instance whose message type cannot be resolved at all aborts on its
// own; sibling instances proceed unaffected.
func AddNavSatOrients(g *dataflow.Graph, streams []bag.TopicStream) ([]*dataflow.Stream[Orientations], error) {
	return dataflow.AddForeach(g, "gnss.navsatorients", streams, topicKey, extractNavSatOrient,
		dataflow.ForeachParent(topicParent))
}

func extractNavSatOrient(ctx context.Context, p *dataflow.Proc[Orientations], ts bag.TopicStream) error {
	if err := p.SetHeader(dataflow.Header{Title: ts.Topic.Name}); err != nil {
		return err
	}
	if ts.Decode == nil {
		p.Logger().Error("message definition not available", "type", ts.Topic.Type)
		// drain the reader before leaving, it blocks on unconsumed pushes
		if err := dataflow.Exhaust(ctx, ts.Msgs); err != nil {
			return err
		}

		return dataflow.ErrAbort
	}

	var (
		skipped int
		values  []OrientationSample
	)

	for {
		msg, ok, err := ts.Msgs.Pull(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		rec, ok := decodeAs[NavSatOrientation](ts.Decode, msg.Data)
		if !ok || math.IsNaN(rec.Yaw) {
			skipped++

			continue
		}

		values = append(values, OrientationSample{
			Time: timeToSeconds(msg.Time),
			Yaw:  rec.Yaw,
		})
	}

	if skipped > 0 {
		p.AddSkipped(skipped)
		p.Warn("skipped erroneous messages", "count", skipped)
	}

	return p.Push(ctx, Orientations{Topic: ts.Topic.Name, Values: values})
}

// AddOrientations concatenates the IMU-derived and direct-yaw streams into
// the single orientations stream the plot composer consumes. In practice at
// most one source carries data. With no input streams the result is nil,
// which downstream nodes treat as valid absence; a single input passes
// through unmerged.
func AddOrientations(g *dataflow.Graph, imus, navsatorients []*dataflow.Stream[Orientations]) (*dataflow.Stream[Orientations], error) {
	ins := make([]*dataflow.Stream[Orientations], 0, len(imus)+len(navsatorients))
	ins = append(ins, imus...)
	ins = append(ins, navsatorients...)

	switch len(ins) {
	case 0:
		return nil, nil
	case 1:
		return ins[0], nil
	default:
		return dataflow.AddMerge(g, "gnss.orientations", ins...)
	}
}
