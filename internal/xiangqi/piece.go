package xiangqi

type Side uint8

const (
	SideUnknown Side = iota
	SideRed
	SideBlack
)

func (s Side) String() string {
	switch s {
	case SideRed:
		return "Red"
	case SideBlack:
		return "Black"
	default:
		return ""
	}
}

func (s Side) Opposite() Side {
	switch s {
	case SideRed:
		return SideBlack
	case SideBlack:
		return SideRed
	default:
		return SideUnknown
	}
}

// forward is the rank delta for a soldier push. Red marches toward rank 0.
func (s Side) forward() int {
	switch s {
	case SideRed:
		return -1
	case SideBlack:
		return 1
	default:
		return 0
	}
}

// PieceKind is the closed set of the seven Xiangqi piece kinds.
type PieceKind uint8

const (
	KindUnknown PieceKind = iota
	KindChariot
	KindHorse
	KindElephant
	KindAdvisor
	KindGeneral
	KindCannon
	KindSoldier
)

func (k PieceKind) String() string {
	switch k {
	case KindChariot:
		return "Chariot"
	case KindHorse:
		return "Horse"
	case KindElephant:
		return "Elephant"
	case KindAdvisor:
		return "Advisor"
	case KindGeneral:
		return "General"
	case KindCannon:
		return "Cannon"
	case KindSoldier:
		return "Soldier"
	default:
		return ""
	}
}

// SymbolFEN returns the wire-format letter for the piece kind, uppercase for
// Red and lowercase for Black.
func (k PieceKind) SymbolFEN(s Side) string {
	var sym byte
	switch k {
	case KindChariot:
		sym = 'R'
	case KindHorse:
		sym = 'N'
	case KindElephant:
		sym = 'B'
	case KindAdvisor:
		sym = 'A'
	case KindGeneral:
		sym = 'K'
	case KindCannon:
		sym = 'C'
	case KindSoldier:
		sym = 'P'
	default:
		return ""
	}
	if s == SideBlack {
		sym |= 0x20
	}
	return string(sym)
}

func kindFromLetter(b byte) PieceKind {
	switch b {
	case 'R':
		return KindChariot
	case 'N':
		return KindHorse
	case 'B':
		return KindElephant
	case 'A':
		return KindAdvisor
	case 'K':
		return KindGeneral
	case 'C':
		return KindCannon
	case 'P':
		return KindSoldier
	default:
		return KindUnknown
	}
}

// Piece is an immutable placement of a kind on a square. Moving a piece
// produces a new value at the destination rather than mutating in place.
type Piece struct {
	Kind PieceKind
	Side Side
	Pos  Coord
}

func (p Piece) String() string {
	if p.Kind == KindUnknown {
		return ""
	}
	return p.Side.String() + " " + p.Kind.String()
}
