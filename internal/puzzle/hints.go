package puzzle

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxHintLevel is the strongest hint: the solution move itself.
const MaxHintLevel = 3

// Hint is one rung of the progressive hint ladder.
type Hint struct {
	Level    int    `json:"hint_level"`
	Text     string `json:"hint"`
	MaxLevel int    `json:"max_hint_level"`
}

// HintFor builds a hint for the puzzle at the requested level: 1 names the
// piece to move, 2 the destination square, 3 the full move.
func HintFor(fen string, solution []string, level int) (Hint, error) {
	if len(solution) == 0 || len(solution[0]) < 4 {
		return Hint{}, errors.New("puzzle has no solution to hint at")
	}
	if level < 1 {
		level = 1
	}
	if level > MaxHintLevel {
		level = MaxHintLevel
	}

	first := solution[0]
	var text string
	switch level {
	case 1:
		piece := pieceAt(fen, first[:2])
		if piece == "" {
			piece = "piece"
		}
		text = fmt.Sprintf("Consider moving your %s to create a threat.", piece)
	case 2:
		text = fmt.Sprintf("Look at moving a piece to %s.", first[2:4])
	default:
		text = fmt.Sprintf("The best move is %s.", first)
	}

	return Hint{Level: level, Text: text, MaxLevel: MaxHintLevel}, nil
}

// pieceAt reads the piece name on a square straight off the FEN board field.
// Returns "" for an empty or out-of-range square.
func pieceAt(fen, square string) string {
	if len(square) != 2 {
		return ""
	}
	file := int(square[0] - 'a')
	rank := int(square[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return ""
	}

	board := strings.SplitN(fen, " ", 2)[0]
	rows := strings.Split(board, "/")
	if len(rows) != 8 {
		return ""
	}

	row := rows[7-rank]
	col := 0
	for _, c := range row {
		if unicode.IsDigit(c) {
			col += int(c - '0')
			continue
		}
		if col == file {
			return pieceName(c)
		}
		col++
	}
	return ""
}

func pieceName(c rune) string {
	switch unicode.ToLower(c) {
	case 'p':
		return "pawn"
	case 'n':
		return "knight"
	case 'b':
		return "bishop"
	case 'r':
		return "rook"
	case 'q':
		return "queen"
	case 'k':
		return "king"
	default:
		return ""
	}
}
