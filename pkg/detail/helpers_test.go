package detail_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rovlab/go-dataflow/pkg/bag"
	"github.com/rovlab/go-dataflow/pkg/dataflow"
)

var recordingStart = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newGraph(t *testing.T, opts ...dataflow.Option) *dataflow.Graph {
	t.Helper()
	g, err := dataflow.New(opts...)
	require.NoError(t, err)

	return g
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

func sampleDataset() bag.Dataset {
	return bag.Dataset{Files: []bag.FileInfo{
		{Path: "/data/recording_0.jsonl", Size: 1024},
		{Path: "/data/recording_1.jsonl", Size: 2048},
	}}
}

func sampleMeta() bag.Meta {
	return bag.Meta{
		StartTime: recordingStart,
		EndTime:   recordingStart.Add(90 * time.Second),
		Topics: []bag.TopicInfo{
			{Name: "/gps", Type: "sensor_msgs/NavSatFix", MsgCount: 120},
			{Name: "/imu", Type: "sensor_msgs/Imu", MsgCount: 900},
		},
		Parts: []bag.PartInfo{
			{StartTime: recordingStart, EndTime: recordingStart.Add(60 * time.Second), MsgCount: 700},
			{StartTime: recordingStart.Add(60 * time.Second), EndTime: recordingStart.Add(90 * time.Second), MsgCount: 320},
		},
	}
}
