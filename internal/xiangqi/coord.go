package xiangqi

import "errors"

const (
	// Files run left to right (0..8), ranks top to bottom (0..9).
	// Rank 0 is Black's back rank; Red plays from the bottom of the grid.
	FileCount = 9
	RankCount = 10

	riverNorthRank = 4
	riverSouthRank = 5

	palaceFileMin = 3
	palaceFileMax = 5
)

var ErrOutOfRange = errors.New("xiangqi: coordinate out of range")

// Coord is a board intersection. The zero value is the top-left corner.
type Coord struct {
	File int
	Rank int
}

func NewCoord(file, rank int) (Coord, error) {
	c := Coord{File: file, Rank: rank}
	if !c.Valid() {
		return Coord{}, ErrOutOfRange
	}
	return c, nil
}

func (c Coord) Valid() bool {
	return c.File >= 0 && c.File < FileCount && c.Rank >= 0 && c.Rank < RankCount
}

// InPalace reports whether c lies inside the 3x3 palace belonging to side.
// Red's palace spans ranks 7-9, Black's spans ranks 0-2, both on files 3-5.
func (c Coord) InPalace(s Side) bool {
	if c.File < palaceFileMin || c.File > palaceFileMax {
		return false
	}
	switch s {
	case SideRed:
		return c.Rank >= RankCount-3
	case SideBlack:
		return c.Rank <= 2
	default:
		return false
	}
}

// AcrossRiver reports whether c lies on the opponent's half of the board
// relative to side.
func (c Coord) AcrossRiver(s Side) bool {
	switch s {
	case SideRed:
		return c.Rank <= riverNorthRank
	case SideBlack:
		return c.Rank >= riverSouthRank
	default:
		return false
	}
}
