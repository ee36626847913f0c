// Command picture-puzzle runs the picture swap puzzle from a terminal.
//
// It supports three commands:
//  1. "play" (default) – an interactive line-based game with a live countdown
//  2. "configs" – lists the puzzle presets found in the config directory
//  3. "hint" – prints the shortest swap plan for a given piece order
//
// Flags control the config directory, debug logging and the log format. A
// .env file in the working directory is loaded before flags are parsed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/picture-puzzle/game/config"
	"github.com/wricardo/picture-puzzle/game/engine"
	"github.com/wricardo/picture-puzzle/game/events"
	"github.com/wricardo/picture-puzzle/game/service"
	"github.com/wricardo/picture-puzzle/game/session"
	"github.com/wricardo/picture-puzzle/game/solver"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Picture Puzzle"
)

// main loads .env, then runs the command line app until it finishes or a
// signal arrives.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warn("error loading .env file")
		}
	} else {
		logrus.Debug("loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// newApp builds the root command reading input from in and writing to out
func newApp(in io.Reader, out io.Writer) *cli.Command {
	play := playCommand(in)
	return &cli.Command{
		Name:    "picture-puzzle",
		Usage:   "swap the pieces until the picture is whole again",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing puzzle presets",
				Sources: cli.EnvVars("PUZZLE_CONFIG_DIR", "CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("PUZZLE_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log output format: text or json",
				Sources: cli.EnvVars("PUZZLE_LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, setupLogging(cmd.Bool("debug"), cmd.String("log-format"))
		},
		Commands: []*cli.Command{
			play,
			configsCommand(),
			hintCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPlay(ctx, in, out, playOptions{configDir: cmd.String("config-dir")})
		},
	}
}

// setupLogging configures the standard logrus logger
func setupLogging(debug bool, format string) error {
	logrus.SetOutput(os.Stderr)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	switch format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// services bundles what the commands need
type services struct {
	puzzles  service.PuzzleService
	configs  *config.Manager
	sessions *session.Manager
	hub      *events.Hub
}

// initializeServices wires the config and session managers, the event hub
// and the puzzle service. The hub is not started.
func initializeServices(configDir string, engineOpts ...engine.Option) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager(session.WithEngineOptions(engineOpts...))
	hub := events.NewHub()
	puzzles := service.NewPuzzleService(sessionManager, configManager, service.WithHub(hub))

	return &services{
		puzzles:  puzzles,
		configs:  configManager,
		sessions: sessionManager,
		hub:      hub,
	}, nil
}

func configsCommand() *cli.Command {
	return &cli.Command{
		Name:  "configs",
		Usage: "list the available puzzle presets",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := initializeServices(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			configs, err := svc.puzzles.ListConfigs(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tGRID\tTIME\tDESCRIPTION")
			for _, c := range configs {
				limit := "-"
				if c.TimeLimit != nil {
					limit = engine.FormatTime(*c.TimeLimit)
				}
				fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%s\n", c.ConfigID, c.Name, c.GridSize, c.GridSize, limit, c.Description)
			}
			return w.Flush()
		},
	}
}

func hintCommand() *cli.Command {
	return &cli.Command{
		Name:      "hint",
		Usage:     "print the shortest swap plan for a board",
		ArgsUsage: "PIECE... (the piece ID in each slot, row by row)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 {
				return errors.New("hint needs the piece order, e.g. hint 2 0 1 3")
			}

			pieces := make([]engine.Piece, len(args))
			for slot, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid piece ID %q: %w", arg, err)
				}
				pieces[slot] = engine.Piece{ID: id, CorrectIndex: id, CurrentIndex: slot}
			}

			plan, err := solver.Plan(pieces)
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			if len(plan) == 0 {
				fmt.Fprintln(out, "Already solved")
				return nil
			}
			fmt.Fprintf(out, "%d swaps:\n", len(plan))
			for i, mv := range plan {
				fmt.Fprintf(out, "  %d. %s\n", i+1, mv)
			}
			return nil
		},
	}
}
