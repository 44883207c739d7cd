package detail

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/rovlab/go-dataflow/pkg/bag"
	"github.com/rovlab/go-dataflow/pkg/dataflow"
	"github.com/rovlab/go-dataflow/pkg/gnss"
)

// AddSummaryKeyval adds the keyval widget summarizing recording metadata:
// total size, file count, time bounds and duration.
func AddSummaryKeyval(g *dataflow.Graph, dataset *dataflow.Stream[bag.Dataset], meta *dataflow.Stream[bag.Meta]) (*dataflow.Stream[Widget], error) {
	return dataflow.AddNode2(g, "detail.summary_keyval", dataset, meta, summaryKeyval)
}

func summaryKeyval(ctx context.Context, p *dataflow.Proc[Widget], datasets *dataflow.Stream[bag.Dataset], metas *dataflow.Stream[bag.Meta]) error {
	dataset, meta, err := pullPair(ctx, datasets, metas)
	if err != nil {
		return err
	}

	var size uint64
	for _, f := range dataset.Files {
		size += f.Size
	}

	return p.Push(ctx, Widget{Keyval: &Keyval{Items: []KeyvalItem{
		{Title: "size", Formatter: FormatterFilesize, Cell: uint64Cell(size)},
		{Title: "files", Cell: uint64Cell(uint64(len(dataset.Files)))},
		{Title: "start time", Formatter: FormatterDatetime, Cell: timestampCell(meta.StartTime.UnixNano())},
		{Title: "end time", Formatter: FormatterDatetime, Cell: timestampCell(meta.EndTime.UnixNano())},
		{Title: "duration", Formatter: FormatterTimedelta, Cell: timedeltaCell(meta.Duration().Nanoseconds())},
	}}})
}

// AddMetaTable adds the table widget listing per-file recording metadata.
func AddMetaTable(g *dataflow.Graph, dataset *dataflow.Stream[bag.Dataset], meta *dataflow.Stream[bag.Meta]) (*dataflow.Stream[Widget], error) {
	return dataflow.AddNode2(g, "detail.meta_table", dataset, meta, metaTable)
}

func metaTable(ctx context.Context, p *dataflow.Proc[Widget], datasets *dataflow.Stream[bag.Dataset], metas *dataflow.Stream[bag.Meta]) error {
	dataset, meta, err := pullPair(ctx, datasets, metas)
	if err != nil {
		return err
	}

	columns := []Column{
		{Title: "Name", Formatter: FormatterRellink},
		{Title: "Size", Formatter: FormatterFilesize},
		{Title: "Start time", Formatter: FormatterDatetime},
		{Title: "End time", Formatter: FormatterDatetime},
		{Title: "Duration", Formatter: FormatterTimedelta},
		{Title: "Message count", Align: "right"},
	}

	rows := make([]Row, 0, len(dataset.Files))
	for idx, file := range dataset.Files {
		if idx >= len(meta.Parts) {
			break
		}
		part := meta.Parts[idx]
		rows = append(rows, Row{ID: idx, Cells: []Cell{
			{Link: &Link{Href: strconv.Itoa(idx), Title: filepath.Base(file.Path)}},
			uint64Cell(file.Size),
			timestampCell(part.StartTime.UnixNano()),
			timestampCell(part.EndTime.UnixNano()),
			timedeltaCell(part.Duration().Nanoseconds()),
			uint64Cell(part.MsgCount),
		}})
	}

	return p.Push(ctx, Widget{Table: &Table{Columns: columns, Rows: rows}})
}

// AddSummarySection combines the summary keyval and the meta table into one
// section.
func AddSummarySection(g *dataflow.Graph, keyval, table *dataflow.Stream[Widget], title string) (*dataflow.Stream[Section], error) {
	return dataflow.AddNode2(g, "detail.summary_section", keyval, table,
		func(ctx context.Context, p *dataflow.Proc[Section], keyvals, tables *dataflow.Stream[Widget]) error {
			widgets, err := dataflow.PullAll(ctx, keyvals, tables)
			if err != nil {
				return err
			}
			if len(widgets) == 0 {
				return nil
			}

			return p.Push(ctx, Section{Title: title, Widgets: widgets})
		})
}

// pullPair retrieves the single dataset and meta aggregates. Either one
// missing means there is nothing to describe.
func pullPair(ctx context.Context, datasets *dataflow.Stream[bag.Dataset], metas *dataflow.Stream[bag.Meta]) (bag.Dataset, bag.Meta, error) {
	dataset, okDataset, err := datasets.Pull(ctx)
	if err != nil {
		return bag.Dataset{}, bag.Meta{}, err
	}
	meta, okMeta, err := metas.Pull(ctx)
	if err != nil {
		return bag.Dataset{}, bag.Meta{}, err
	}
	// drain both before deciding, an aborting node must not leave its
	// producers blocked
	if err := dataflow.Exhaust(ctx, datasets); err != nil {
		return bag.Dataset{}, bag.Meta{}, err
	}
	if err := dataflow.Exhaust(ctx, metas); err != nil {
		return bag.Dataset{}, bag.Meta{}, err
	}
	if !okDataset || !okMeta {
		return bag.Dataset{}, bag.Meta{}, dataflow.ErrAbort
	}

	return dataset, meta, nil
}

// AddTopicsSection adds the section tabulating topic name, message type and
// message count.
func AddTopicsSection(g *dataflow.Graph, meta *dataflow.Stream[bag.Meta], title string) (*dataflow.Stream[Section], error) {
	return dataflow.AddNode(g, "detail.topics_section", meta,
		func(ctx context.Context, p *dataflow.Proc[Section], metas *dataflow.Stream[bag.Meta]) error {
			meta, ok, err := metas.Pull(ctx)
			if err != nil {
				return err
			}
			if err := dataflow.Exhaust(ctx, metas); err != nil {
				return err
			}
			if !ok {
				return dataflow.ErrAbort
			}

			columns := []Column{
				{Title: "Topic"},
				{Title: "Message type"},
				{Title: "Message count", Align: "right"},
			}
			rows := make([]Row, 0, len(meta.Topics))
			for idx, topic := range meta.Topics {
				rows = append(rows, Row{ID: idx, Cells: []Cell{
					{Text: topic.Name},
					{Text: topic.Type},
					uint64Cell(topic.MsgCount),
				}})
			}

			return p.Push(ctx, Section{Title: title, Widgets: []Widget{
				{Table: &Table{Columns: columns, Rows: rows}},
			}})
		})
}

// AddGNSSSection adds the section displaying GNSS plot artifacts, one image
// widget per plot. No plots means no section.
func AddGNSSSection(g *dataflow.Graph, plots *dataflow.Stream[dataflow.File], title string) (*dataflow.Stream[Section], error) {
	return dataflow.AddNode(g, "detail.gnss_section", plots,
		func(ctx context.Context, p *dataflow.Proc[Section], plots *dataflow.Stream[dataflow.File]) error {
			var widgets []Widget
			for {
				plotfile, ok, err := plots.Pull(ctx)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				plotTitle, err := plots.Title(ctx)
				if err != nil {
					return err
				}
				widgets = append(widgets, Widget{
					Title: plotTitle,
					Image: &Image{Src: plotfile.RelPath},
				})
			}
			if err := uniqueWidgetTitles(widgets); err != nil {
				return err
			}
			if len(widgets) == 0 {
				return nil
			}

			return p.Push(ctx, Section{Title: title, Widgets: widgets})
		})
}

// AddGalleries adds one gallery widget per image stream, headered with the
// stream's own title.
func AddGalleries(g *dataflow.Graph, streams []*dataflow.Stream[dataflow.File]) ([]*dataflow.Stream[Widget], error) {
	return dataflow.AddForeach(g, "detail.galleries", streams,
		func(s *dataflow.Stream[dataflow.File]) string { return s.Name() },
		func(ctx context.Context, p *dataflow.Proc[Widget], in *dataflow.Stream[dataflow.File]) error {
			title, err := in.Title(ctx)
			if err != nil {
				return err
			}
			if err := p.SetHeader(dataflow.Header{Title: title}); err != nil {
				return err
			}
			var images []Image
			for {
				img, ok, err := in.Pull(ctx)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				images = append(images, Image{Src: img.RelPath})
			}

			return p.Push(ctx, Widget{Title: title, Gallery: &Gallery{Images: images}})
		},
		dataflow.ForeachParent(func(s *dataflow.Stream[dataflow.File]) string { return s.Name() }),
	)
}

// AddImagesSection adds the section holding one gallery per image stream,
// sorted by title for determinism. No galleries means no section.
func AddImagesSection(g *dataflow.Graph, galleries []*dataflow.Stream[Widget], title string) (*dataflow.Stream[Section], error) {
	return dataflow.AddNodeN(g, "detail.images_section", galleries,
		func(ctx context.Context, p *dataflow.Proc[Section], ins []*dataflow.Stream[Widget]) error {
			sorted, err := sortByTitle(ctx, ins)
			if err != nil {
				return err
			}
			widgets, err := dataflow.PullAll(ctx, sorted...)
			if err != nil {
				return err
			}
			if len(widgets) == 0 {
				return nil
			}

			return p.Push(ctx, Section{Title: title, Widgets: widgets})
		})
}

// AddTrajectorySection adds the section displaying the trajectory on a map.
// The map descriptor goes into a data.json artifact referenced by a partial
// widget; without a trajectory the node aborts to make the absence visible.
func AddTrajectorySection(g *dataflow.Graph, geojson *dataflow.Stream[gnss.GeoJSON], title string, cfg MapConfig) (*dataflow.Stream[Section], error) {
	return dataflow.AddNode(g, "detail.trajectory_section", geojson,
		func(ctx context.Context, p *dataflow.Proc[Section], in *dataflow.Stream[gnss.GeoJSON]) error {
			geo, ok, err := in.Pull(ctx)
			if err != nil {
				return err
			}
			if err := dataflow.Exhaust(ctx, in); err != nil {
				return err
			}
			if !ok {
				return dataflow.ErrAbort
			}

			dct := MakeMapDict(geo, cfg)
			data, err := json.Marshal(dct)
			if err != nil {
				return errors.Wrap(err, "unable to encode map descriptor")
			}
			jsonfile, err := p.MakeFile("data.json")
			if err != nil {
				return err
			}
			if err := os.WriteFile(jsonfile.Path, data, 0o644); err != nil {
				return errors.Wrap(err, "unable to write map descriptor")
			}

			return p.Push(ctx, Section{Title: title, Widgets: []Widget{
				{MapPartial: "partial:" + jsonfile.RelPath},
			}})
		})
}

// AddVideoSection adds the section with one video player per stream, sorted
// by title. Without any videos the node aborts.
func AddVideoSection(g *dataflow.Graph, videos []*dataflow.Stream[dataflow.File], title string) (*dataflow.Stream[Section], error) {
	return dataflow.AddNodeN(g, "detail.video_section", videos,
		func(ctx context.Context, p *dataflow.Proc[Section], ins []*dataflow.Stream[dataflow.File]) error {
			sorted, err := sortByTitle(ctx, ins)
			if err != nil {
				return err
			}

			var widgets []Widget
			for _, in := range sorted {
				videofile, ok, err := in.Pull(ctx)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				videoTitle, err := in.Title(ctx)
				if err != nil {
					return err
				}
				if err := dataflow.Exhaust(ctx, in); err != nil {
					return err
				}
				widgets = append(widgets, Widget{
					Title: videoTitle,
					Video: &Video{Src: videofile.RelPath},
				})
			}
			if len(widgets) == 0 {
				return dataflow.ErrAbort
			}
			if err := uniqueWidgetTitles(widgets); err != nil {
				return err
			}

			return p.Push(ctx, Section{Title: title, Widgets: widgets})
		})
}

func sortByTitle[T any](ctx context.Context, ins []*dataflow.Stream[T]) ([]*dataflow.Stream[T], error) {
	type titled struct {
		title  string
		stream *dataflow.Stream[T]
	}
	all := make([]titled, 0, len(ins))
	for _, in := range ins {
		title, err := in.Title(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, titled{title: title, stream: in})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].title < all[j].title
	})

	sorted := make([]*dataflow.Stream[T], len(all))
	for i, t := range all {
		sorted[i] = t.stream
	}

	return sorted, nil
}
