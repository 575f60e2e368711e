package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// UCI drives a stockfish-compatible engine binary over stdin/stdout. It
// implements both Validator and Oracle: legality and successor positions are
// derived from the engine's own move generation (perft at depth 1 and the
// debug position dump), so no chess rules live in this process.
type UCI struct {
	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	lines    chan string
	rng      *rand.Rand
	moveTime time.Duration
}

// FindBinary resolves the engine binary: explicit path first, then common
// install locations, then PATH.
func FindBinary(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("engine binary not found at %s", explicit)
	}
	for _, p := range []string{
		"/usr/bin/stockfish",
		"/usr/local/bin/stockfish",
		"/opt/homebrew/bin/stockfish",
	} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if p, err := exec.LookPath("stockfish"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("stockfish not found; install it or set STOCKFISH_PATH")
}

// NewUCI starts the engine binary. moveTime caps analysis search time; zero
// means depth-only search.
func NewUCI(path string, moveTime time.Duration) (*UCI, error) {
	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}

	u := &UCI{
		cmd:      cmd,
		stdin:    stdin,
		lines:    make(chan string, 256),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		moveTime: moveTime,
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			u.lines <- scanner.Text()
		}
		close(u.lines)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := u.send("uci"); err != nil {
		_ = u.Close()
		return nil, err
	}
	if _, err := u.waitFor(ctx, "uciok"); err != nil {
		_ = u.Close()
		return nil, fmt.Errorf("uci handshake: %w", err)
	}
	if err := u.sync(ctx); err != nil {
		_ = u.Close()
		return nil, err
	}
	return u, nil
}

func (u *UCI) Close() error {
	_ = u.send("quit")
	done := make(chan error, 1)
	go func() { done <- u.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		_ = u.cmd.Process.Kill()
		return <-done
	}
}

// Validate implements Validator via the engine's own move generation.
func (u *UCI) Validate(ctx context.Context, fen, move string) (ValidationResult, error) {
	move = strings.TrimSpace(move)
	if len(move) < 4 || len(move) > 5 {
		return ValidationResult{Valid: false, Reason: "Invalid move notation"}, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	legal, err := u.legalMoves(ctx, fen)
	if err != nil {
		return ValidationResult{}, err
	}
	if !contains(legal, move) {
		return ValidationResult{Valid: false, Reason: "Illegal move"}, nil
	}

	newFEN, checkers, err := u.positionAfter(ctx, fen, move)
	if err != nil {
		return ValidationResult{}, err
	}

	replies, err := u.legalMoves(ctx, newFEN)
	if err != nil {
		return ValidationResult{}, err
	}

	res := ValidationResult{Valid: true, NewFEN: newFEN}
	if len(replies) == 0 {
		res.Terminal = true
		if checkers {
			// The side to move in newFEN is mated; the mover wins.
			if sideToMove(newFEN) == "w" {
				res.Result = "0-1"
			} else {
				res.Result = "1-0"
			}
		} else {
			res.Result = "1/2-1/2"
		}
	}
	return res, nil
}

// BestMove implements Oracle. Low levels occasionally play a random legal
// move to simulate human mistakes, matching the tutoring ladder.
func (u *UCI) BestMove(ctx context.Context, fen string, level int) (string, error) {
	cfg := LevelConfig(level)

	u.mu.Lock()
	defer u.mu.Unlock()

	if level <= 5 && u.rng.Float64() < 0.3 {
		legal, err := u.legalMoves(ctx, fen)
		if err != nil {
			return "", err
		}
		if len(legal) > 0 {
			return legal[u.rng.Intn(len(legal))], nil
		}
	}

	if err := u.send(fmt.Sprintf("setoption name Skill Level value %d", cfg.Skill)); err != nil {
		return "", err
	}
	if err := u.send("position fen " + fen); err != nil {
		return "", err
	}
	if err := u.send(fmt.Sprintf("go depth %d movetime %d", cfg.Depth, cfg.MoveTime.Milliseconds())); err != nil {
		return "", err
	}
	line, err := u.waitFor(ctx, "bestmove")
	if err != nil {
		return "", err
	}
	move := parseBestMove(line)
	if move == "" || move == "(none)" {
		return "", fmt.Errorf("%w: no best move for %s", ErrUnavailable, fen)
	}
	return move, nil
}

// Evaluate implements Oracle.
func (u *UCI) Evaluate(ctx context.Context, fen string, depth int) (Evaluation, error) {
	if depth <= 0 {
		depth = 15
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.send("setoption name Skill Level value 20"); err != nil {
		return Evaluation{}, err
	}
	if err := u.send("position fen " + fen); err != nil {
		return Evaluation{}, err
	}
	goCmd := fmt.Sprintf("go depth %d", depth)
	if u.moveTime > 0 {
		goCmd = fmt.Sprintf("go depth %d movetime %d", depth, u.moveTime.Milliseconds())
	}
	if err := u.send(goCmd); err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{Depth: depth}
	for {
		line, err := u.next(ctx)
		if err != nil {
			return Evaluation{}, err
		}
		if strings.HasPrefix(line, "info ") {
			parseScore(line, &eval)
			continue
		}
		if strings.HasPrefix(line, "bestmove") {
			if m := parseBestMove(line); m != "" && m != "(none)" {
				eval.BestMove = m
			}
			return eval, nil
		}
	}
}

// legalMoves lists legal moves via perft at depth 1. Caller holds u.mu.
func (u *UCI) legalMoves(ctx context.Context, fen string) ([]string, error) {
	if err := u.sync(ctx); err != nil {
		return nil, err
	}
	if err := u.send("position fen " + fen); err != nil {
		return nil, err
	}
	if err := u.send("go perft 1"); err != nil {
		return nil, err
	}

	var moves []string
	for {
		line, err := u.next(ctx)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, "Nodes searched") {
			return moves, nil
		}
		if move, ok := parsePerftMove(line); ok {
			moves = append(moves, move)
		}
	}
}

// positionAfter applies a move and reads the resulting FEN and check status
// from the engine's debug dump. Caller holds u.mu.
func (u *UCI) positionAfter(ctx context.Context, fen, move string) (string, bool, error) {
	if err := u.sync(ctx); err != nil {
		return "", false, err
	}
	if err := u.send(fmt.Sprintf("position fen %s moves %s", fen, move)); err != nil {
		return "", false, err
	}
	if err := u.send("d"); err != nil {
		return "", false, err
	}

	newFEN := ""
	checkers := false
	for {
		line, err := u.next(ctx)
		if err != nil {
			return "", false, err
		}
		if strings.HasPrefix(line, "Fen:") {
			newFEN = strings.TrimSpace(strings.TrimPrefix(line, "Fen:"))
			continue
		}
		if strings.HasPrefix(line, "Checkers:") {
			checkers = strings.TrimSpace(strings.TrimPrefix(line, "Checkers:")) != ""
			break
		}
	}
	if newFEN == "" {
		return "", false, fmt.Errorf("%w: no FEN in position dump", ErrUnavailable)
	}
	return newFEN, checkers, nil
}

func (u *UCI) send(cmd string) error {
	if _, err := io.WriteString(u.stdin, cmd+"\n"); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrUnavailable, cmd, err)
	}
	return nil
}

// sync discards stale output until the engine acknowledges readiness.
func (u *UCI) sync(ctx context.Context) error {
	if err := u.send("isready"); err != nil {
		return err
	}
	_, err := u.waitFor(ctx, "readyok")
	return err
}

func (u *UCI) next(ctx context.Context) (string, error) {
	select {
	case line, ok := <-u.lines:
		if !ok {
			return "", fmt.Errorf("%w: engine closed its output", ErrUnavailable)
		}
		return line, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case <-time.After(30 * time.Second):
		return "", fmt.Errorf("%w: engine response timeout", ErrUnavailable)
	}
}

func (u *UCI) waitFor(ctx context.Context, prefix string) (string, error) {
	for {
		line, err := u.next(ctx)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, prefix) {
			return line, nil
		}
	}
}

func parseBestMove(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return ""
	}
	return fields[1]
}

// parsePerftMove parses "e2e4: 1" style lines from perft output.
func parsePerftMove(line string) (string, bool) {
	idx := strings.Index(line, ":")
	if idx < 4 {
		return "", false
	}
	move := strings.TrimSpace(line[:idx])
	if len(move) < 4 || len(move) > 5 {
		return "", false
	}
	for _, r := range move[:4] {
		if (r < 'a' || r > 'h') && (r < '1' || r > '8') {
			return "", false
		}
	}
	if _, err := strconv.Atoi(strings.TrimSpace(line[idx+1:])); err != nil {
		return "", false
	}
	return move, true
}

// parseScore extracts the centipawn or mate score from an info line.
func parseScore(line string, eval *Evaluation) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields)-2; i++ {
		if fields[i] != "score" {
			continue
		}
		n, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return
		}
		switch fields[i+1] {
		case "cp":
			eval.ScoreCP = n
			eval.Mate = 0
		case "mate":
			eval.Mate = n
			if n > 0 {
				eval.ScoreCP = 10000
			} else {
				eval.ScoreCP = -10000
			}
		}
		return
	}
}

func sideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return "w"
	}
	return fields[1]
}

func contains(moves []string, move string) bool {
	for _, m := range moves {
		if m == move {
			return true
		}
	}
	return false
}
