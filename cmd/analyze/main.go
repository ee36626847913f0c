// Command analyze prints quick, human-readable shuffle statistics for the
// puzzle presets in the configs directory, or for bare grid sizes. For each
// puzzle it shuffles many boards and summarizes how many pieces start in
// place, how many swaps an optimal player needs, and how that compares with
// the preset's time limit.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/picture-puzzle/game/config"
	"github.com/wricardo/picture-puzzle/game/engine"
	"github.com/wricardo/picture-puzzle/game/solver"
)

// ShuffleStats summarizes the boards produced for one puzzle
type ShuffleStats struct {
	Label          string
	GridSize       int
	Trials         int
	MeanInPlace    float64
	MeanMinSwaps   float64
	MaxMinSwaps    int
	SolvedOnEntry  int
	TimeLimit      *int
	SecondsPerSwap float64 // worst observed board, 0 when untimed
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "shuffle statistics for puzzle presets",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "preset directory", Sources: cli.EnvVars("PUZZLE_CONFIG_DIR")},
			&cli.IntSliceFlag{Name: "grid", Usage: "analyze bare grid sizes instead of presets"},
			&cli.IntFlag{Name: "trials", Value: 1000, Usage: "boards shuffled per puzzle"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "shuffle seed"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			trials := int(cmd.Int("trials"))
			seed := int64(cmd.Int("seed"))

			var puzzles []labeledConfig
			if grids := cmd.IntSlice("grid"); len(grids) > 0 {
				for _, g := range grids {
					puzzles = append(puzzles, labeledConfig{
						label:  fmt.Sprintf("%dx%d", g, g),
						config: engine.PuzzleConfig{GridSize: int(g)},
					})
				}
			} else {
				var err error
				if puzzles, err = loadPresets(cmd.String("config-dir")); err != nil {
					return err
				}
			}

			var results []ShuffleStats
			for _, p := range puzzles {
				stats, err := analyzeConfig(p.label, p.config, trials, seed)
				if err != nil {
					return err
				}
				results = append(results, stats)
			}
			return printStats(out, results)
		},
	}
}

type labeledConfig struct {
	label  string
	config engine.PuzzleConfig
}

// loadPresets reads every valid preset in dir
func loadPresets(dir string) ([]labeledConfig, error) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	manager, err := config.NewManager(dir, config.WithLogger(log))
	if err != nil {
		return nil, err
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		return nil, err
	}

	var presets []labeledConfig
	for _, info := range infos {
		preset, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			return nil, err
		}
		presets = append(presets, labeledConfig{label: info.ConfigID, config: *preset})
	}
	return presets, nil
}

// analyzeConfig shuffles trials boards for config and summarizes them
func analyzeConfig(label string, config engine.PuzzleConfig, trials int, seed int64) (ShuffleStats, error) {
	stats := ShuffleStats{
		Label:     label,
		GridSize:  config.GridSize,
		Trials:    trials,
		TimeLimit: config.TimeLimit,
	}
	if trials <= 0 {
		return stats, fmt.Errorf("trials must be positive, got %d", trials)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	eng := engine.New(
		engine.WithSeed(seed),
		engine.WithLogger(log),
		engine.WithScheduler(engine.NewManualScheduler()),
	)

	var inPlace, swaps int
	for i := 0; i < trials; i++ {
		if err := eng.Initialize(config); err != nil {
			return stats, fmt.Errorf("%s: %w", label, err)
		}
		snap := eng.Snapshot()

		n, err := solver.MinSwaps(snap.Pieces)
		if err != nil {
			return stats, err
		}
		inPlace += snap.CorrectCount()
		swaps += n
		if n > stats.MaxMinSwaps {
			stats.MaxMinSwaps = n
		}
		if n == 0 {
			stats.SolvedOnEntry++
		}
	}

	stats.MeanInPlace = float64(inPlace) / float64(trials)
	stats.MeanMinSwaps = float64(swaps) / float64(trials)
	if config.TimeLimit != nil && stats.MaxMinSwaps > 0 {
		stats.SecondsPerSwap = float64(*config.TimeLimit) / float64(stats.MaxMinSwaps)
	}
	return stats, nil
}

func printStats(out io.Writer, results []ShuffleStats) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PUZZLE\tGRID\tIN PLACE\tMIN SWAPS\tWORST\tSOLVED\tTIME\tSEC/SWAP")
	for _, s := range results {
		limit, pace := "-", "-"
		if s.TimeLimit != nil {
			limit = engine.FormatTime(*s.TimeLimit)
			pace = fmt.Sprintf("%.1f", s.SecondsPerSwap)
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%.2f\t%.2f\t%d\t%d/%d\t%s\t%s\n",
			s.Label, s.GridSize, s.GridSize, s.MeanInPlace, s.MeanMinSwaps,
			s.MaxMinSwaps, s.SolvedOnEntry, s.Trials, limit, pace)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, s := range results {
		if s.TimeLimit != nil && s.SecondsPerSwap < 2 {
			fmt.Fprintf(out, "⚠️  %s: worst board leaves %.1fs per swap, two clicks each\n", s.Label, s.SecondsPerSwap)
		}
	}
	return nil
}
