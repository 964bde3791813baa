package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	BoardSize = 15
	WinLength = 5
)

type Cell int

const (
	EmptyCell Cell = iota
	BlackCell
	WhiteCell
)

type Color string

const (
	ColorBlack Color = "black"
	ColorWhite Color = "white"
)

// Board is indexed as board[y][x].
type Board [BoardSize][BoardSize]Cell

// axes through a cell: horizontal, vertical, and the two diagonals.
var axes = [4][2]int{
	{1, 0},
	{0, 1},
	{1, 1},
	{1, -1},
}

// Cell - returns the stone value of the color.
func (that Color) Cell() Cell {
	switch that {
	case ColorBlack:
		return BlackCell
	case ColorWhite:
		return WhiteCell
	default:
		return EmptyCell
	}
}

func (that Color) Opponent() Color {
	if that == ColorBlack {
		return ColorWhite
	}
	return ColorBlack
}

// ColorForIndex - index 0 plays black, index 1 plays white.
func ColorForIndex(index int) Color {
	if index == 0 {
		return ColorBlack
	}
	return ColorWhite
}

func InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// Place - returns a copy of the board with the stone placed at (x, y).
func (that Board) Place(x, y int, color Color) (Board, error) {
	if !InBounds(x, y) {
		return that, fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidPosition, x, y)
	}

	if that[y][x] != EmptyCell {
		return that, fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, x, y)
	}

	that[y][x] = color.Cell()

	return that, nil
}

// CheckWin - reports whether (x, y) is part of a run of at least WinLength stones of the color.
func (that Board) CheckWin(x, y int, color Color) bool {
	stone := color.Cell()
	if stone == EmptyCell || !InBounds(x, y) || that[y][x] != stone {
		return false
	}

	for _, axis := range axes {
		dx, dy := axis[0], axis[1]

		count := 1 + that.countRun(x, y, dx, dy, stone) + that.countRun(x, y, -dx, -dy, stone)
		if count >= WinLength {
			return true
		}
	}

	return false
}

func (that Board) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}

	return true
}

// countRun - counts contiguous stones from (x, y) exclusive, stepping by (dx, dy).
func (that Board) countRun(x, y, dx, dy int, stone Cell) int {
	count := 0
	for nx, ny := x+dx, y+dy; InBounds(nx, ny) && that[ny][nx] == stone; nx, ny = nx+dx, ny+dy {
		count++
	}

	return count
}
