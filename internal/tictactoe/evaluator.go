package tictactoe

import "github.com/rocketscienceinc/tictactoe-cafe/internal/entity"

// WinCombos lists rows, then columns, then diagonals. Winner scans them in
// this order.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Winner returns the seat owning the first complete line, or SeatNone.
func Winner(board entity.Board) entity.Seat {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return entity.SeatForMark(a)
		}
	}

	return entity.SeatNone
}

// IsDraw reports a full board without a winning line.
func IsDraw(board entity.Board) bool {
	return board.IsFull() && Winner(board) == entity.SeatNone
}
