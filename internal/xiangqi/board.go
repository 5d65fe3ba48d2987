package xiangqi

import (
	"errors"
	"strings"
)

// Board owns the piece collection, the move history and the side to move.
// No two live pieces may share a coordinate; the map representation enforces
// that invariant on every mutation. A Board is single-owner: callers must
// serialize concurrent access themselves.
type Board struct {
	pieces     map[Coord]Piece
	history    []Move
	sideToMove Side
}

func NewBoard() *Board {
	return &Board{
		pieces:     make(map[Coord]Piece),
		sideToMove: SideRed,
	}
}

const initialBoardString = `rnbakabnr
.........
.c.....c.
p.p.p.p.p
.........
.........
P.P.P.P.P
.C.....C.
.........
RNBAKABNR`

// SetupInitialPosition clears all state and places the standard 16-vs-16
// opening array with Red to move.
func (b *Board) SetupInitialPosition() {
	b.pieces = make(map[Coord]Piece, 32)
	b.history = nil
	b.sideToMove = SideRed

	for rank, line := range strings.Split(initialBoardString, "\n") {
		for file := 0; file < FileCount; file++ {
			ch := line[file]
			if ch == '.' {
				continue
			}
			side := SideBlack
			upper := ch
			if ch >= 'A' && ch <= 'Z' {
				side = SideRed
			} else {
				upper = ch &^ 0x20
			}
			pos := Coord{File: file, Rank: rank}
			b.pieces[pos] = Piece{Kind: kindFromLetter(upper), Side: side, Pos: pos}
		}
	}
}

// PieceAt returns the occupant of c, if any.
func (b *Board) PieceAt(c Coord) (Piece, bool) {
	p, ok := b.pieces[c]
	return p, ok
}

// Pieces returns a snapshot of all live pieces in no particular order.
func (b *Board) Pieces() []Piece {
	out := make([]Piece, 0, len(b.pieces))
	for _, p := range b.pieces {
		out = append(out, p)
	}
	return out
}

func (b *Board) SideToMove() Side {
	return b.sideToMove
}

// History returns the resolved moves played so far, oldest first.
func (b *Board) History() []Move {
	return append([]Move(nil), b.history...)
}

var ErrDuplicateSquare = errors.New("xiangqi: two pieces on one square")

// SetPosition replaces the board contents wholesale. History is cleared.
// Fails if any two pieces share a coordinate or any coordinate is invalid.
func (b *Board) SetPosition(pieces []Piece, sideToMove Side) error {
	next := make(map[Coord]Piece, len(pieces))
	for _, p := range pieces {
		if !p.Pos.Valid() {
			return ErrOutOfRange
		}
		if _, taken := next[p.Pos]; taken {
			return ErrDuplicateSquare
		}
		next[p.Pos] = p
	}
	if sideToMove != SideRed && sideToMove != SideBlack {
		sideToMove = SideRed
	}
	b.pieces = next
	b.history = nil
	b.sideToMove = sideToMove
	return nil
}

// MakeMove re-validates the move and applies it. On success the captured
// piece (if any) is removed, the mover is relocated, the resolved move is
// appended to history and the side to move flips. Returns false and leaves
// the board untouched on any legality failure.
func (b *Board) MakeMove(m Move) bool {
	if !b.IsLegal(m) {
		return false
	}

	mover := b.pieces[m.From]
	resolved := Move{
		From:        m.From,
		To:          m.To,
		Piece:       mover,
		IsCheck:     m.IsCheck,
		IsCheckmate: m.IsCheckmate,
	}
	if victim, ok := b.pieces[m.To]; ok {
		v := victim
		resolved.Captured = &v
	}

	delete(b.pieces, m.From)
	mover.Pos = m.To
	b.pieces[m.To] = mover

	b.history = append(b.history, resolved)
	b.sideToMove = b.sideToMove.Opposite()
	return true
}

// UndoMove pops the last history entry, restoring the mover, any captured
// piece and the previous side to move. Returns false on empty history.
func (b *Board) UndoMove() bool {
	if len(b.history) == 0 {
		return false
	}
	last := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]

	delete(b.pieces, last.To)
	mover := last.Piece
	mover.Pos = last.From
	b.pieces[last.From] = mover
	if last.Captured != nil {
		b.pieces[last.Captured.Pos] = *last.Captured
	}
	b.sideToMove = b.sideToMove.Opposite()
	return true
}

func (b *Board) occupied(c Coord) bool {
	_, ok := b.pieces[c]
	return ok
}

func (b *Board) findGeneral(s Side) (Piece, bool) {
	for _, p := range b.pieces {
		if p.Kind == KindGeneral && p.Side == s {
			return p, true
		}
	}
	return Piece{}, false
}
