package detail_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovlab/go-dataflow/pkg/bag"
	"github.com/rovlab/go-dataflow/pkg/dataflow"
	"github.com/rovlab/go-dataflow/pkg/detail"
	"github.com/rovlab/go-dataflow/pkg/gnss"
)

func TestSummaryKeyval(t *testing.T) {
	g := newGraph(t)
	datasets := aggregateSource(t, g, "dataset", "", sampleDataset())
	metas := aggregateSource(t, g, "meta", "", sampleMeta())

	out, err := detail.AddSummaryKeyval(g, datasets, metas)
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, *got, 1)

	keyval := (*got)[0].Keyval
	require.NotNil(t, keyval)
	require.Len(t, keyval.Items, 5)

	size := keyval.Items[0]
	assert.Equal(t, "size", size.Title)
	assert.Equal(t, detail.FormatterFilesize, size.Formatter)
	require.NotNil(t, size.Cell.UInt64)
	assert.Equal(t, uint64(3072), *size.Cell.UInt64)

	files := keyval.Items[1]
	assert.Equal(t, "files", files.Title)
	require.NotNil(t, files.Cell.UInt64)
	assert.Equal(t, uint64(2), *files.Cell.UInt64)

	start := keyval.Items[2]
	assert.Equal(t, detail.FormatterDatetime, start.Formatter)
	require.NotNil(t, start.Cell.Timestamp)
	assert.Equal(t, recordingStart.UnixNano(), *start.Cell.Timestamp)

	duration := keyval.Items[4]
	assert.Equal(t, detail.FormatterTimedelta, duration.Formatter)
	require.NotNil(t, duration.Cell.Timedelta)
	assert.Equal(t, (90 * time.Second).Nanoseconds(), *duration.Cell.Timedelta)
}

func TestSummaryKeyvalAbortsWithoutMeta(t *testing.T) {
	g := newGraph(t)
	datasets := aggregateSource(t, g, "dataset", "", sampleDataset())
	metas := abortedSource[bag.Meta](t, g, "meta")

	out, err := detail.AddSummaryKeyval(g, datasets, metas)
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	assert.Empty(t, *got)
	assert.True(t, out.Aborted())
}

func TestMetaTable(t *testing.T) {
	g := newGraph(t)
	datasets := aggregateSource(t, g, "dataset", "", sampleDataset())
	metas := aggregateSource(t, g, "meta", "", sampleMeta())

	out, err := detail.AddMetaTable(g, datasets, metas)
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, *got, 1)

	table := (*got)[0].Table
	require.NotNil(t, table)
	require.Len(t, table.Columns, 6)
	assert.Equal(t, detail.FormatterRellink, table.Columns[0].Formatter)
	assert.Equal(t, "right", table.Columns[5].Align)

	require.Len(t, table.Rows, 2)
	first := table.Rows[0]
	assert.Equal(t, 0, first.ID)
	require.NotNil(t, first.Cells[0].Link)
	assert.Equal(t, "0", first.Cells[0].Link.Href)
	assert.Equal(t, "recording_0.jsonl", first.Cells[0].Link.Title)
	require.NotNil(t, first.Cells[1].UInt64)
	assert.Equal(t, uint64(1024), *first.Cells[1].UInt64)
	require.NotNil(t, first.Cells[5].UInt64)
	assert.Equal(t, uint64(700), *first.Cells[5].UInt64)
}

func TestSummarySection(t *testing.T) {
	g := newGraph(t)
	keyval := aggregateSource(t, g, "keyval", "", detail.Widget{Keyval: &detail.Keyval{}})
	table := aggregateSource(t, g, "table", "", detail.Widget{Table: &detail.Table{}})

	out, err := detail.AddSummarySection(g, keyval, table, "Summary")
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, *got, 1)
	section := (*got)[0]
	assert.Equal(t, "Summary", section.Title)
	require.Len(t, section.Widgets, 2)
	assert.NotNil(t, section.Widgets[0].Keyval)
	assert.NotNil(t, section.Widgets[1].Table)
}

func TestTopicsSection(t *testing.T) {
	g := newGraph(t)
	metas := aggregateSource(t, g, "meta", "", sampleMeta())

	out, err := detail.AddTopicsSection(g, metas, "Topics")
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, *got, 1)

	section := (*got)[0]
	assert.Equal(t, "Topics", section.Title)
	require.Len(t, section.Widgets, 1)
	table := section.Widgets[0].Table
	require.NotNil(t, table)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "/gps", table.Rows[0].Cells[0].Text)
	assert.Equal(t, "sensor_msgs/NavSatFix", table.Rows[0].Cells[1].Text)
	require.NotNil(t, table.Rows[0].Cells[2].UInt64)
	assert.Equal(t, uint64(120), *table.Rows[0].Cells[2].UInt64)
}

func TestGNSSSection(t *testing.T) {
	g := newGraph(t)
	plots := aggregateSource(t, g, "plots", "/gps with /imu",
		dataflow.File{RelPath: "plots/gps__imu.svg"})

	out, err := detail.AddGNSSSection(g, plots, "GNSS")
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, *got, 1)

	section := (*got)[0]
	assert.Equal(t, "GNSS", section.Title)
	require.Len(t, section.Widgets, 1)
	widget := section.Widgets[0]
	assert.Equal(t, "/gps with /imu", widget.Title)
	require.NotNil(t, widget.Image)
	assert.Equal(t, "plots/gps__imu.svg", widget.Image.Src)
}

func TestGNSSSectionAbsentWithoutPlots(t *testing.T) {
	g := newGraph(t)
	plots := abortedSource[dataflow.File](t, g, "plots")

	out, err := detail.AddGNSSSection(g, plots, "GNSS")
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	assert.Empty(t, *got)
	assert.False(t, out.Aborted())
}

func TestGNSSSectionDuplicateTitles(t *testing.T) {
	g := newGraph(t)
	plots, err := dataflow.AddSource(g, "plots", func(ctx context.Context, p *dataflow.Proc[dataflow.File]) error {
		if err := p.SetHeader(dataflow.Header{Title: "/gps with none"}); err != nil {
			return err
		}
		if err := p.Push(ctx, dataflow.File{RelPath: "a.svg"}); err != nil {
			return err
		}

		return p.Push(ctx, dataflow.File{RelPath: "b.svg"})
	})
	require.NoError(t, err)

	out, err := detail.AddGNSSSection(g, plots, "GNSS")
	require.NoError(t, err)
	addCollect(t, g, "collect", out)

	assert.ErrorIs(t, g.Run(context.Background()), detail.ErrDuplicateWidgetTitle)
}

func TestGalleriesAndImagesSection(t *testing.T) {
	g := newGraph(t)
	camB := aggregateSource(t, g, "cam b", "/camera/back", dataflow.File{RelPath: "back/0.jpg"})
	camA := aggregateSource(t, g, "cam a", "/camera/front", dataflow.File{RelPath: "front/0.jpg"})

	galleries, err := detail.AddGalleries(g, []*dataflow.Stream[dataflow.File]{camB, camA})
	require.NoError(t, err)
	require.Len(t, galleries, 2)

	out, err := detail.AddImagesSection(g, galleries, "Images")
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, *got, 1)

	section := (*got)[0]
	assert.Equal(t, "Images", section.Title)
	require.Len(t, section.Widgets, 2)
	// galleries are ordered by title, not by declaration
	assert.Equal(t, "/camera/back", section.Widgets[0].Title)
	assert.Equal(t, "/camera/front", section.Widgets[1].Title)
	require.NotNil(t, section.Widgets[0].Gallery)
	require.Len(t, section.Widgets[0].Gallery.Images, 1)
	assert.Equal(t, "back/0.jpg", section.Widgets[0].Gallery.Images[0].Src)
}

func TestImagesSectionAbsentWithoutGalleries(t *testing.T) {
	g := newGraph(t)

	out, err := detail.AddImagesSection(g, nil, "Images")
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	assert.Empty(t, *got)
}

func TestTrajectorySection(t *testing.T) {
	dir := t.TempDir()
	g := newGraph(t, dataflow.WithArtifactDir(dir))
	geojson := aggregateSource(t, g, "trajectory", "", trajectoryGeoJSON())

	out, err := detail.AddTrajectorySection(g, geojson, "Trajectory", detail.DefaultMapConfig())
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, *got, 1)

	section := (*got)[0]
	assert.Equal(t, "Trajectory", section.Title)
	require.Len(t, section.Widgets, 1)
	rel := filepath.Join("detail.trajectory_section", "data.json")
	assert.Equal(t, "partial:"+rel, section.Widgets[0].MapPartial)

	data, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	var dct map[string]any
	require.NoError(t, json.Unmarshal(data, &dct))
	layers, ok := dct["layers"].([]any)
	require.True(t, ok)
	assert.Len(t, layers, 2)
}

func TestTrajectorySectionAbortsWithoutGeoJSON(t *testing.T) {
	g := newGraph(t, dataflow.WithArtifactDir(t.TempDir()))
	geojson := abortedSource[gnss.GeoJSON](t, g, "trajectory")

	out, err := detail.AddTrajectorySection(g, geojson, "Trajectory", detail.DefaultMapConfig())
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	assert.Empty(t, *got)
	assert.True(t, out.Aborted())
}

func TestVideoSection(t *testing.T) {
	g := newGraph(t)
	videoB := aggregateSource(t, g, "video b", "/video/rear", dataflow.File{RelPath: "rear.webm"})
	videoA := aggregateSource(t, g, "video a", "/video/front", dataflow.File{RelPath: "front.webm"})

	out, err := detail.AddVideoSection(g, []*dataflow.Stream[dataflow.File]{videoB, videoA}, "Videos")
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, *got, 1)

	section := (*got)[0]
	require.Len(t, section.Widgets, 2)
	assert.Equal(t, "/video/front", section.Widgets[0].Title)
	require.NotNil(t, section.Widgets[0].Video)
	assert.Equal(t, "front.webm", section.Widgets[0].Video.Src)
	assert.Equal(t, "/video/rear", section.Widgets[1].Title)
}

func TestVideoSectionAbortsWithoutVideos(t *testing.T) {
	g := newGraph(t)
	absent := abortedSource[dataflow.File](t, g, "video")

	out, err := detail.AddVideoSection(g, []*dataflow.Stream[dataflow.File]{absent}, "Videos")
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	assert.Empty(t, *got)
	assert.True(t, out.Aborted())
}
