// Package game holds the pure tic-tac-toe rules shared by the game session
// server and its tests: the board representation and terminal detection.
package game

// Player symbols. An empty string marks a free cell.
const (
	SymbolX = "X"
	SymbolO = "O"
)

// BoardSize is the number of cells on the grid.
const BoardSize = 9

// MaxRounds is the round count at which a game without a winner is a draw.
const MaxRounds = 9

// Board is the 3x3 grid in row-major order. Cells hold SymbolX, SymbolO or "".
type Board []string

// NewBoard returns an empty board.
func NewBoard() Board {
	return make(Board, BoardSize)
}

// Reset clears every cell in place.
func (b Board) Reset() {
	for i := range b {
		b[i] = ""
	}
}

// winningTriples are the eight canonical three-in-a-row cell index sets:
// three rows, three columns, two diagonals.
var winningTriples = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// CheckWin reports whether the board contains a completed triple and, if so,
// which one. A triple wins when all three cells hold the same non-empty
// symbol. The first matching triple in canonical order is returned.
func (b Board) CheckWin() ([3]int, bool) {
	for _, t := range winningTriples {
		if b[t[0]] != "" && b[t[0]] == b[t[1]] && b[t[0]] == b[t[2]] {
			return t, true
		}
	}
	return [3]int{}, false
}
