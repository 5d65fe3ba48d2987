package xiangqi

import (
	"errors"
	"strings"
)

// Wire position format: one segment per rank starting from rank 0 (Black's
// back rank), '/'-separated, run-length digits for empty squares, uppercase
// letters for Red, and a trailing " <side> - - 0 1". This matches the
// UCI-style engine's FEN dialect.

var ErrInvalidFEN = errors.New("xiangqi: invalid position string")

// EncodeFEN serializes the board to the engine wire format.
func (b *Board) EncodeFEN() string {
	var sb strings.Builder
	for rank := 0; rank < RankCount; rank++ {
		if rank > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for file := 0; file < FileCount; file++ {
			p, ok := b.pieces[Coord{File: file, Rank: rank}]
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(p.Kind.SymbolFEN(p.Side))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	sb.WriteByte(' ')
	if b.sideToMove == SideBlack {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('w')
	}
	sb.WriteString(" - - 0 1")
	return sb.String()
}

// DecodeFEN parses a wire position string into a fresh board. Only the rank
// layout and side-to-move token are consulted; the trailing counters are
// ignored.
func DecodeFEN(fen string) (*Board, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return nil, ErrInvalidFEN
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != RankCount {
		return nil, ErrInvalidFEN
	}

	pieces := make([]Piece, 0, 32)
	for rank, seg := range ranks {
		file := 0
		for i := 0; i < len(seg); i++ {
			ch := seg[i]
			if ch >= '1' && ch <= '9' {
				file += int(ch - '0')
				continue
			}
			side := SideBlack
			upper := ch
			if ch >= 'A' && ch <= 'Z' {
				side = SideRed
			} else {
				upper = ch &^ 0x20
			}
			kind := kindFromLetter(upper)
			if kind == KindUnknown || file >= FileCount {
				return nil, ErrInvalidFEN
			}
			pos := Coord{File: file, Rank: rank}
			pieces = append(pieces, Piece{Kind: kind, Side: side, Pos: pos})
			file++
		}
		if file != FileCount {
			return nil, ErrInvalidFEN
		}
	}

	side := SideRed
	if fields[1] == "b" {
		side = SideBlack
	}

	b := NewBoard()
	if err := b.SetPosition(pieces, side); err != nil {
		return nil, err
	}
	return b, nil
}

// Token renders the move in the wire format: file letters 'a'..'i' and rank
// digits counted bottom-up, the inverse of the internal top-down ranks.
func (m Move) Token() string {
	return string([]byte{
		byte('a' + m.From.File),
		byte('0' + (RankCount - 1 - m.From.Rank)),
		byte('a' + m.To.File),
		byte('0' + (RankCount - 1 - m.To.Rank)),
	})
}

// ParseMoveToken decodes a four-character wire move token into internal
// coordinates, inverting the rank axis.
func ParseMoveToken(token string) (from, to Coord, err error) {
	if len(token) != 4 {
		return Coord{}, Coord{}, ErrOutOfRange
	}
	from, err = NewCoord(int(token[0]-'a'), RankCount-1-int(token[1]-'0'))
	if err != nil {
		return Coord{}, Coord{}, err
	}
	to, err = NewCoord(int(token[2]-'a'), RankCount-1-int(token[3]-'0'))
	if err != nil {
		return Coord{}, Coord{}, err
	}
	return from, to, nil
}
