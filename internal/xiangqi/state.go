package xiangqi

// GameState is the derived condition of the side to move.
type GameState uint8

const (
	StatePlaying GameState = iota
	StateCheck
	StateCheckmate
	StateStalemate
)

func (g GameState) String() string {
	switch g {
	case StatePlaying:
		return "Playing"
	case StateCheck:
		return "Check"
	case StateCheckmate:
		return "Checkmate"
	case StateStalemate:
		return "Stalemate"
	default:
		return ""
	}
}

// IsInCheck reports whether side's General is attacked. Implemented by
// probing every enemy piece's movement law against the General's square
// rather than building attack maps; reach and threat coincide for this
// rule set.
func (b *Board) IsInCheck(side Side) bool {
	general, ok := b.findGeneral(side)
	if !ok {
		return false
	}
	enemy := side.Opposite()
	for _, p := range b.pieces {
		if p.Side != enemy {
			continue
		}
		if b.isLegalFor(p, general.Pos) {
			return true
		}
	}
	return false
}

// HasLegalMove reports whether side has at least one legal destination,
// scanned over the full 90-square grid. Quadratic per piece, but the board
// is fixed-size.
func (b *Board) HasLegalMove(side Side) bool {
	for _, p := range b.pieces {
		if p.Side != side {
			continue
		}
		for file := 0; file < FileCount; file++ {
			for rank := 0; rank < RankCount; rank++ {
				if b.isLegalFor(p, Coord{File: file, Rank: rank}) {
					return true
				}
			}
		}
	}
	return false
}

// GameState derives the condition of the side to move.
func (b *Board) GameState() GameState {
	inCheck := b.IsInCheck(b.sideToMove)
	hasMove := b.HasLegalMove(b.sideToMove)
	switch {
	case inCheck && !hasMove:
		return StateCheckmate
	case inCheck:
		return StateCheck
	case !hasMove:
		return StateStalemate
	default:
		return StatePlaying
	}
}
