package xiangqi

// Move describes one ply. Captured is filled in by MakeMove with whatever
// occupied To at move time. IsCheck and IsCheckmate are annotations supplied
// by the caller after resolution; the board carries them through history but
// never assigns them itself.
type Move struct {
	From     Coord
	To       Coord
	Piece    Piece
	Captured *Piece

	IsCheck     bool
	IsCheckmate bool
}

func (m Move) String() string {
	return m.Token()
}
