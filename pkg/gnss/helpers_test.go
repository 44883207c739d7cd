package gnss_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/rovlab/go-dataflow/pkg/bag"
	"github.com/rovlab/go-dataflow/pkg/dataflow"
	"github.com/rovlab/go-dataflow/pkg/gnss"
	"github.com/rovlab/go-dataflow/pkg/render"
)

var recordingStart = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newGraph(t *testing.T, opts ...dataflow.Option) *dataflow.Graph {
	t.Helper()
	g, err := dataflow.New(opts...)
	require.NoError(t, err)

	return g
}

// topicSource fabricates the per-topic stream an extractor instance consumes,
// one message per payload, a second apart.
func topicSource(t *testing.T, g *dataflow.Graph, name, topic, msgType string, payloads ...[]byte) bag.TopicStream {
	t.Helper()
	out, err := dataflow.AddSource(g, name, func(ctx context.Context, p *dataflow.Proc[bag.Message]) error {
		if err := p.SetHeader(dataflow.Header{Title: topic}); err != nil {
			return err
		}
		for i, data := range payloads {
			msg := bag.Message{
				Topic: topic,
				Type:  msgType,
				Time:  recordingStart.Add(time.Duration(i) * time.Second),
				Data:  data,
			}
			if err := p.Push(ctx, msg); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err)

	dec, _ := gnss.Types()[msgType]

	return bag.TopicStream{
		Topic:  bag.TopicInfo{Name: topic, Type: msgType, MsgCount: uint64(len(payloads))},
		Decode: dec,
		Msgs:   out,
	}
}

func addCollect[T any](t *testing.T, g *dataflow.Graph, name string, in *dataflow.Stream[T]) *[]T {
	t.Helper()
	got := &[]T{}
	err := dataflow.AddSink(g, name, in, func(_ context.Context, item T) error {
		*got = append(*got, item)

		return nil
	})
	require.NoError(t, err)

	return got
}

func fixPayload(t *testing.T, lat, lon, alt float64, status int8) []byte {
	t.Helper()
	data, err := json.Marshal(gnss.NavSatFix{
		Latitude:  lat,
		Longitude: lon,
		Altitude:  alt,
		Status:    &gnss.FixStatus{Status: status},
	})
	require.NoError(t, err)

	return data
}

func imuPayload(t *testing.T, q gnss.Quaternion) []byte {
	t.Helper()
	data, err := json.Marshal(gnss.Imu{Orientation: q})
	require.NoError(t, err)

	return data
}

func yawPayload(t *testing.T, yaw float64) []byte {
	t.Helper()
	data, err := json.Marshal(gnss.NavSatOrientation{Yaw: yaw})
	require.NoError(t, err)

	return data
}

// fakeRenderer records the figure it was asked to draw and writes a stub
// artifact, or fails the whole render.
type fakeRenderer struct {
	fig  render.Figure
	fail bool
}

func (r *fakeRenderer) Render(fig render.Figure, path string) error {
	if r.fail {
		return errors.New("render failed")
	}
	r.fig = fig

	return os.WriteFile(path, []byte("figure"), 0o644)
}

// aggregateSource emits a single headered aggregate, the shape extractor
// instances hand downstream.
func aggregateSource[T any](t *testing.T, g *dataflow.Graph, name, title string, item T) *dataflow.Stream[T] {
	t.Helper()
	out, err := dataflow.AddSource(g, name, func(ctx context.Context, p *dataflow.Proc[T]) error {
		if err := p.SetHeader(dataflow.Header{Title: title}); err != nil {
			return err
		}

		return p.Push(ctx, item)
	})
	require.NoError(t, err)

	return out
}

func abortedSource[T any](t *testing.T, g *dataflow.Graph, name string) *dataflow.Stream[T] {
	t.Helper()
	out, err := dataflow.AddSource(g, name, func(ctx context.Context, p *dataflow.Proc[T]) error {
		return dataflow.ErrAbort
	})
	require.NoError(t, err)

	return out
}
