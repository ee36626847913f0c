package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/picture-puzzle/game/engine"
	"github.com/wricardo/picture-puzzle/game/events"
	"github.com/wricardo/picture-puzzle/game/service"
	"github.com/wricardo/picture-puzzle/game/timer"
)

// playOptions selects the puzzle an interactive game starts with
type playOptions struct {
	configDir   string
	preset      string
	contentPath string
	gridSize    int
	timeLimit   int // seconds, 0 keeps the preset's limit, negative removes it
	seed        int64
	lockOnSolve bool
}

func playCommand(in io.Reader) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play a puzzle in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "preset to play (default preset when empty)"},
			&cli.StringFlag{Name: "content", Usage: "story mini-game content JSON file to play instead of a preset"},
			&cli.IntFlag{Name: "grid-size", Usage: "override the grid size"},
			&cli.IntFlag{Name: "time-limit", Usage: "override the time limit in seconds, negative for untimed"},
			&cli.IntFlag{Name: "seed", Usage: "shuffle seed, 0 for a random board"},
			&cli.BoolFlag{Name: "lock-on-solve", Usage: "ignore input while the victory is pending"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := playOptions{
				configDir:   cmd.String("config-dir"),
				preset:      cmd.String("config"),
				contentPath: cmd.String("content"),
				gridSize:    int(cmd.Int("grid-size")),
				timeLimit:   int(cmd.Int("time-limit")),
				seed:        int64(cmd.Int("seed")),
				lockOnSolve: cmd.Bool("lock-on-solve"),
			}
			return runPlay(ctx, in, cmd.Root().Writer, opts)
		},
	}
}

// runPlay plays one session until the input ends, "quit" is entered or ctx
// is cancelled
func runPlay(ctx context.Context, in io.Reader, out io.Writer, opts playOptions) error {
	var engineOpts []engine.Option
	if opts.seed != 0 {
		engineOpts = append(engineOpts, engine.WithSeed(opts.seed))
	}
	if opts.lockOnSolve {
		engineOpts = append(engineOpts, engine.WithInputLockOnSolve())
	}

	svc, err := initializeServices(opts.configDir, engineOpts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go svc.hub.Run(ctx)
	go func() {
		if err := svc.configs.Watch(ctx); err != nil {
			logrus.WithError(err).Warn("preset watcher stopped")
		}
	}()

	info, err := createPlaySession(ctx, svc, opts)
	if err != nil {
		return err
	}

	term := &terminal{out: out}
	sub := svc.hub.Subscribe(info.ID)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		term.announce(sub.Events())
	}()
	defer wg.Wait()
	defer sub.Close()

	game := &playSession{ctx: ctx, puzzles: svc.puzzles, id: info.ID, term: term}
	term.printf("%s\n", instructionFor(info.Config))
	term.render(info.State)
	term.printf("%s\n", helpText)
	game.startCountdown()

	lines := readLines(ctx, in)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := game.handle(line); quit {
				return nil
			}
		}
	}
}

// createPlaySession starts the session described by opts
func createPlaySession(ctx context.Context, svc *services, opts playOptions) (*service.SessionInfo, error) {
	if opts.contentPath != "" {
		data, err := os.ReadFile(opts.contentPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read content: %w", err)
		}
		return svc.puzzles.CreateSessionFromContent(ctx, data)
	}

	if opts.gridSize == 0 && opts.timeLimit == 0 {
		return svc.puzzles.CreateSession(ctx, opts.preset)
	}

	// overrides go through a content document built from the preset
	var base *engine.PuzzleConfig
	var err error
	if opts.preset == "" {
		base, err = svc.configs.GetDefault()
	} else {
		base, err = svc.puzzles.LoadConfig(ctx, opts.preset)
	}
	if err != nil {
		return nil, err
	}

	doc := map[string]any{
		"title":           base.Name,
		"description":     base.Description,
		"gridSize":        base.GridSize,
		"imageUrl":        base.ImageURL,
		"instructionText": base.InstructionText,
	}
	if base.TimeLimit != nil {
		doc["timeLimit"] = *base.TimeLimit
	}
	if opts.gridSize != 0 {
		doc["gridSize"] = opts.gridSize
	}
	switch {
	case opts.timeLimit > 0:
		doc["timeLimit"] = opts.timeLimit
	case opts.timeLimit < 0:
		delete(doc, "timeLimit")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return svc.puzzles.CreateSessionFromContent(ctx, data)
}

// readLines forwards input lines until in is exhausted or ctx ends
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

const helpText = `Commands:
  <a> <b>     swap pieces a and b
  p <n>       click piece n (select, deselect or swap with the selection)
  h           show a hint
  c           close the victory or defeat screen
  r           restart with a new shuffle
  q           quit`

// playSession routes terminal commands to one puzzle session
type playSession struct {
	ctx      context.Context
	puzzles  service.PuzzleService
	id       string
	term     *terminal
	stopTick context.CancelFunc
}

// handle runs one command line and reports whether the game should end
func (g *playSession) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "q", "quit", "exit":
		g.stopCountdown()
		return true
	case "h", "hint":
		err = g.hint()
	case "c", "close":
		err = g.closeOverlays()
	case "r", "restart":
		err = g.restart()
	case "p", "pick":
		if len(fields) != 2 {
			g.term.printf("usage: p <piece>\n")
			return false
		}
		var id int
		if id, err = strconv.Atoi(fields[1]); err == nil {
			err = g.move(g.puzzles.SelectPiece(g.ctx, g.id, id))
		}
	case "?", "help":
		g.term.printf("%s\n", helpText)
	default:
		if len(fields) != 2 {
			g.term.printf("unknown command %q, type ? for help\n", line)
			return false
		}
		var a, b int
		if a, err = strconv.Atoi(fields[0]); err == nil {
			if b, err = strconv.Atoi(fields[1]); err == nil {
				err = g.move(g.puzzles.Swap(g.ctx, g.id, a, b))
			}
		}
	}

	if err != nil {
		g.term.printf("error: %v\n", err)
	}
	return false
}

func (g *playSession) move(result *service.MoveResult, err error) error {
	if err != nil {
		return err
	}
	g.term.render(result.State)
	g.term.printf("%s\n", result.Message)
	return nil
}

func (g *playSession) hint() error {
	hint, err := g.puzzles.Hint(g.ctx, g.id)
	if err != nil {
		return err
	}
	if hint.Move == nil {
		g.term.printf("Nothing left to swap\n")
		return nil
	}
	g.term.printf("Try swapping %d and %d (%d swaps to go)\n", hint.Move.PieceA, hint.Move.PieceB, hint.Remaining)
	return nil
}

func (g *playSession) closeOverlays() error {
	if _, err := g.puzzles.CloseVictoryScreen(g.ctx, g.id); err != nil {
		return err
	}
	snap, err := g.puzzles.CloseDefeatScreen(g.ctx, g.id)
	if err != nil {
		return err
	}
	g.term.render(*snap)
	return nil
}

func (g *playSession) restart() error {
	g.stopCountdown()
	info, err := g.puzzles.Restart(g.ctx, g.id)
	if err != nil {
		return err
	}
	g.term.render(info.State)
	g.startCountdown()
	return nil
}

func (g *playSession) startCountdown() {
	ctx, cancel := context.WithCancel(g.ctx)
	g.stopTick = cancel
	countdown := timer.New(sessionClock{ctx: ctx, puzzles: g.puzzles, id: g.id},
		timer.WithLogger(logrus.WithField("session", g.id)),
		timer.WithTickHandler(g.term.tick),
	)
	done := countdown.Start(ctx)
	go func() {
		reason := <-done
		logrus.WithFields(logrus.Fields{"session": g.id, "reason": reason}).Debug("countdown finished")
	}()
}

func (g *playSession) stopCountdown() {
	if g.stopTick != nil {
		g.stopTick()
		g.stopTick = nil
	}
}

// sessionClock lets a countdown drive a session through the service
type sessionClock struct {
	ctx     context.Context
	puzzles service.PuzzleService
	id      string
}

func (c sessionClock) DecrementTimer() {
	if _, err := c.puzzles.Tick(c.ctx, c.id); err != nil {
		logrus.WithError(err).WithField("session", c.id).Warn("tick failed")
	}
}

func (c sessionClock) Snapshot() engine.Snapshot {
	info, err := c.puzzles.GetSession(c.ctx, c.id)
	if err != nil {
		return engine.Snapshot{Status: engine.StatusError, LastError: err.Error()}
	}
	return info.State
}

// terminal serializes output from the input loop, the countdown and the
// event subscription
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// tick reports the countdown at round minutes and during the last ten seconds
func (t *terminal) tick(snap engine.Snapshot) {
	if snap.TimeLeft == nil {
		return
	}
	left := *snap.TimeLeft
	if left <= 10 || left%60 == 0 {
		t.printf("Time left: %s\n", engine.FormatTime(left))
	}
}

// announce prints victory and defeat as they arrive from the hub
func (t *terminal) announce(evs <-chan events.Event) {
	for ev := range evs {
		switch ev.Type {
		case events.EventVictory:
			t.render(ev.Snapshot)
			t.printf("You did it! Solved in %d moves. Type c to close, r to play again.\n", ev.Snapshot.Moves)
		case events.EventDefeat:
			t.printf("Time is up! %d of %d pieces were in place. Type r to try again.\n",
				ev.Snapshot.CorrectCount(), len(ev.Snapshot.Pieces))
		case events.EventError:
			t.printf("Puzzle error: %s\n", ev.Snapshot.LastError)
		}
	}
}

// render prints the board with each slot's piece ID; pieces in place are
// marked with an asterisk
func (t *terminal) render(snap engine.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(snap.Pieces) == 0 {
		fmt.Fprintf(t.out, "[%s]\n", snap.Status)
		return
	}

	var b strings.Builder
	size := snap.Config.GridSize
	board := snap.Board()
	for slot, id := range board {
		mark := " "
		if id == slot {
			mark = "*"
		}
		if snap.SelectedPieceID != nil && *snap.SelectedPieceID == id {
			mark = "<"
		}
		fmt.Fprintf(&b, "%4d%s", id, mark)
		if _, col := engine.RowCol(slot, size); col == size-1 {
			b.WriteString("\n")
		}
	}

	status := fmt.Sprintf("[%s] moves: %d", snap.Status, snap.Moves)
	if snap.TimeLeft != nil {
		status += "  time: " + engine.FormatTime(*snap.TimeLeft)
	}
	fmt.Fprintf(t.out, "%s%s  in place: %d/%d\n", b.String(), status, snap.CorrectCount(), len(snap.Pieces))
}

func instructionFor(config *engine.PuzzleConfig) string {
	if config == nil || config.InstructionText == "" {
		return engine.DefaultInstructionText
	}
	return config.InstructionText
}
