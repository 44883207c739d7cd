package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rovlab/go-dataflow/pkg/bag"
	"github.com/rovlab/go-dataflow/pkg/dataflow"
	"github.com/rovlab/go-dataflow/pkg/dataflow/measure"
	"github.com/rovlab/go-dataflow/pkg/detail"
	"github.com/rovlab/go-dataflow/pkg/gnss"
	"github.com/rovlab/go-dataflow/pkg/render"
)

// version is set at build time via -ldflags.
var version = "dev"

var flags struct {
	out     string
	config  string
	dot     string
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "gnss-report <recording.jsonl>",
	Short: "Derive GNSS plots, trajectory map and report sections from a recording",
	Long: `gnss-report runs the extraction graph over a JSON-lines recording:
per-topic position and orientation extraction, a composite GNSS figure,
a GeoJSON trajectory and the dashboard sections describing them.

Artifacts and the final report.json land in the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flags.out, "out", "o", "report", "Output directory for artifacts and report.json")
	f.StringVarP(&flags.config, "config", "c", "", "Path to YAML config file")
	f.StringVar(&flags.dot, "dot", "", "Write the node graph in DOT format to this path")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := detail.DefaultConfig()
	if flags.config != "" {
		var err error
		cfg, err = detail.LoadConfig(flags.config)
		if err != nil {
			return err
		}
	}

	log := newLogger(flags.verbose)

	src, err := bag.OpenJSONL(args[0], gnss.Types())
	if err != nil {
		return err
	}

	meas := measure.New()
	opts := []dataflow.Option{
		dataflow.WithLogger(log),
		dataflow.WithArtifactDir(flags.out),
		dataflow.WithMeasure(meas),
	}
	if flags.dot != "" {
		opts = append(opts, dataflow.WithDrawer(flags.dot))
	}
	g, err := dataflow.New(opts...)
	if err != nil {
		return err
	}

	sections, err := buildGraph(g, src, cfg)
	if err != nil {
		return err
	}

	var report []detail.Section
	err = dataflow.AddSink(g, "report.collect", sections, func(_ context.Context, s detail.Section) error {
		report = append(report, s)

		return nil
	})
	if err != nil {
		return err
	}

	if err := g.Run(cmd.Context()); err != nil {
		return err
	}

	for name, inv := range meas.All() {
		log.Debug("node finished",
			"node", name,
			"pushed", inv.Pushed(),
			"skipped", inv.Skipped(),
			"warnings", inv.Warnings(),
			"elapsed", inv.Elapsed(),
		)
	}

	return writeReport(filepath.Join(flags.out, "report.json"), report)
}

// buildGraph wires the full extraction graph and returns the merged section
// stream.
func buildGraph(g *dataflow.Graph, src bag.Source, cfg detail.Config) (*dataflow.Stream[detail.Section], error) {
	datasetStream, err := dataflow.AddSource(g, "bag.dataset", func(ctx context.Context, p *dataflow.Proc[bag.Dataset]) error {
		return p.Push(ctx, src.Dataset())
	})
	if err != nil {
		return nil, err
	}
	metaStream, err := dataflow.AddSource(g, "bag.meta", func(ctx context.Context, p *dataflow.Proc[bag.Meta]) error {
		return p.Push(ctx, src.Meta())
	})
	if err != nil {
		return nil, err
	}
	datasets, err := dataflow.AddSplit(g, "bag.dataset.split", datasetStream, 2)
	if err != nil {
		return nil, err
	}
	metas, err := dataflow.AddSplit(g, "bag.meta.split", metaStream, 3)
	if err != nil {
		return nil, err
	}

	gps, err := bag.Streams(g, "bag.gps", src, "*", gnss.NavSatFixType)
	if err != nil {
		return nil, err
	}
	imuTopics, err := bag.Streams(g, "bag.imu", src, "*", gnss.ImuType)
	if err != nil {
		return nil, err
	}
	orientTopics, err := bag.Streams(g, "bag.orient", src, "*", gnss.NavSatOrientationType)
	if err != nil {
		return nil, err
	}

	positions, err := gnss.AddPositions(g, gps)
	if err != nil {
		return nil, err
	}
	imus, err := gnss.AddImus(g, imuTopics)
	if err != nil {
		return nil, err
	}
	navsatorients, err := gnss.AddNavSatOrients(g, orientTopics)
	if err != nil {
		return nil, err
	}
	orientations, err := gnss.AddOrientations(g, imus, navsatorients)
	if err != nil {
		return nil, err
	}

	// the plot and the trajectory each consume the first position aggregate;
	// further topics only contribute stats
	var posPlot, posTraj *dataflow.Stream[gnss.Positions]
	if len(positions) > 0 {
		split, err := dataflow.AddSplit(g, "gnss.positions.split", positions[0], 2)
		if err != nil {
			return nil, err
		}
		posPlot, posTraj = split[0], split[1]
		for i, extra := range positions[1:] {
			if err := dataflow.AddDrain(g, fmt.Sprintf("gnss.positions.drain.%d", i), extra); err != nil {
				return nil, err
			}
		}
	}

	plots, err := gnss.AddGNSSPlot(g, render.NewSVGRenderer(), posPlot, orientations)
	if err != nil {
		return nil, err
	}
	geojson, err := gnss.AddTrajectory(g, posTraj)
	if err != nil {
		return nil, err
	}

	keyval, err := detail.AddSummaryKeyval(g, datasets[0], metas[0])
	if err != nil {
		return nil, err
	}
	table, err := detail.AddMetaTable(g, datasets[1], metas[1])
	if err != nil {
		return nil, err
	}
	summary, err := detail.AddSummarySection(g, keyval, table, "Summary")
	if err != nil {
		return nil, err
	}
	topics, err := detail.AddTopicsSection(g, metas[2], "Topics")
	if err != nil {
		return nil, err
	}
	gnssSection, err := detail.AddGNSSSection(g, plots, "GNSS")
	if err != nil {
		return nil, err
	}
	trajectory, err := detail.AddTrajectorySection(g, geojson, "Trajectory", cfg.Map)
	if err != nil {
		return nil, err
	}

	return dataflow.AddMerge(g, "report.sections", summary, topics, gnssSection, trajectory)
}

func writeReport(path string, sections []detail.Section) error {
	if sections == nil {
		sections = []detail.Section{}
	}
	data, err := json.MarshalIndent(map[string]any{"sections": sections}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to encode report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "unable to create output directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "unable to write report")
	}

	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
