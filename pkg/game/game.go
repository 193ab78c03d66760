package game

import (
	"errors"

	"github.com/gridgames/gridlock/pkg/game/types"
)

var (
	ErrCellOutOfRange = errors.New("cell index out of range")
	ErrCellOccupied   = errors.New("cell already occupied")
	ErrGameOver       = errors.New("game is over")
)

// winLines defines all possible winning combinations
var winLines = [8][3]int{
	{0, 1, 2}, // top row
	{3, 4, 5}, // middle row
	{6, 7, 8}, // bottom row
	{0, 3, 6}, // left column
	{1, 4, 7}, // middle column
	{2, 5, 8}, // right column
	{0, 4, 8}, // diagonal
	{2, 4, 6}, // anti-diagonal
}

// MoveResult is the state produced by a valid move.
type MoveResult struct {
	Board   types.Board
	Turn    int
	Outcome types.Outcome
}

// ApplyMove places the mark for the turn slot at the given cell and returns
// the resulting board, turn, and outcome. It is a pure function: it performs
// no I/O and never modifies its inputs. Rejections are one of
// ErrGameOver, ErrCellOutOfRange, or ErrCellOccupied.
func ApplyMove(board types.Board, turn int, outcome types.Outcome, cell int) (*MoveResult, error) {
	if outcome != types.OutcomeNone {
		return nil, ErrGameOver
	}
	if cell < 0 || cell >= types.BoardSize {
		return nil, ErrCellOutOfRange
	}
	if board[cell] != types.MarkEmpty {
		return nil, ErrCellOccupied
	}

	board[cell] = types.MarkForSlot(turn)

	result := &MoveResult{
		Board: board,
		Turn:  turn,
	}
	if winner := CheckWinner(board); winner != types.MarkEmpty {
		result.Outcome = types.OutcomeForMark(winner)
	} else if board.Full() {
		result.Outcome = types.OutcomeDraw
	} else {
		result.Turn = 1 - turn
	}

	return result, nil
}

// CheckWinner returns the mark holding three in a row, or the empty mark.
func CheckWinner(board types.Board) types.Mark {
	for _, line := range winLines {
		a, b, c := line[0], line[1], line[2]
		if board[a] != types.MarkEmpty && board[a] == board[b] && board[b] == board[c] {
			return board[a]
		}
	}
	return types.MarkEmpty
}
