package puzzle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNoPuzzle means no stored puzzle fits the requested tier and rating
// window, or candidate verification was exhausted.
var ErrNoPuzzle = errors.New("no suitable puzzle available")

// Puzzle is one tactical exercise. Solution holds the expected move sequence
// in long algebraic notation; only the first move is graded.
type Puzzle struct {
	ID       string   `json:"puzzle_id"`
	FEN      string   `json:"fen"`
	Solution []string `json:"solution"`
	Tier     string   `json:"difficulty"`
	Theme    string   `json:"theme"`
	Rating   int      `json:"rating"`
}

type puzzleRow struct {
	ID       string `db:"id"`
	FEN      string `db:"fen"`
	Solution string `db:"solution"`
	Tier     string `db:"tier"`
	Theme    string `db:"theme"`
	Rating   int    `db:"rating"`
}

func (r puzzleRow) toPuzzle() *Puzzle {
	return &Puzzle{
		ID:       r.ID,
		FEN:      r.FEN,
		Solution: strings.Fields(r.Solution),
		Tier:     r.Tier,
		Theme:    r.Theme,
		Rating:   r.Rating,
	}
}

// Repository stores puzzles in SQLite.
type Repository struct {
	db *sqlx.DB
}

// NewRepository opens (or creates) the puzzle database. Use ":memory:" for an
// ephemeral database in tests.
func NewRepository(path string) (*Repository, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create puzzle db directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect puzzle db: %w", err)
	}
	// SQLite doesn't support multiple writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS puzzles (
			id TEXT PRIMARY KEY,
			fen TEXT NOT NULL,
			solution TEXT NOT NULL,
			tier TEXT NOT NULL,
			theme TEXT NOT NULL DEFAULT '',
			rating INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create puzzles table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_puzzles_tier_rating ON puzzles (tier, rating)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create puzzles index: %w", err)
	}

	return &Repository{db: db}, nil
}

// Add inserts a puzzle, assigning an ID when absent.
func (r *Repository) Add(ctx context.Context, p *Puzzle) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO puzzles (id, fen, solution, tier, theme, rating) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.FEN, strings.Join(p.Solution, " "), p.Tier, p.Theme, p.Rating,
	)
	if err != nil {
		return fmt.Errorf("insert puzzle: %w", err)
	}
	return nil
}

// Get looks a puzzle up by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Puzzle, error) {
	var row puzzleRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, fen, solution, tier, theme, rating FROM puzzles WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoPuzzle
		}
		return nil, fmt.Errorf("get puzzle: %w", err)
	}
	return row.toPuzzle(), nil
}

// Random picks one puzzle at the tier within the rating window.
func (r *Repository) Random(ctx context.Context, tier string, minRating, maxRating int) (*Puzzle, error) {
	var row puzzleRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, fen, solution, tier, theme, rating
		 FROM puzzles
		 WHERE tier = ? AND rating BETWEEN ? AND ?
		 ORDER BY RANDOM() LIMIT 1`,
		tier, minRating, maxRating,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoPuzzle
		}
		return nil, fmt.Errorf("pick puzzle: %w", err)
	}
	return row.toPuzzle(), nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
