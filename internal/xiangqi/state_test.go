package xiangqi

import "testing"

func TestOpeningPositionIsPlaying(t *testing.T) {
	b := NewBoard()
	b.SetupInitialPosition()
	if got := b.GameState(); got != StatePlaying {
		t.Fatalf("opening GameState = %v, want Playing", got)
	}
	if b.IsInCheck(SideRed) || b.IsInCheck(SideBlack) {
		t.Fatal("opening position reported a check")
	}
}

func TestNoFirstMoveCheckmate(t *testing.T) {
	b := NewBoard()
	b.SetupInitialPosition()
	for _, p := range b.Pieces() {
		if p.Side != SideRed {
			continue
		}
		for file := 0; file < FileCount; file++ {
			for rank := 0; rank < RankCount; rank++ {
				m := Move{From: p.Pos, To: Coord{File: file, Rank: rank}}
				if !b.MakeMove(m) {
					continue
				}
				if got := b.GameState(); got == StateCheckmate {
					t.Fatalf("first move %v produced Checkmate", m.Token())
				}
				if !b.UndoMove() {
					t.Fatalf("undo of %v failed", m.Token())
				}
			}
		}
	}
}

func TestChariotDeliversCheck(t *testing.T) {
	b := boardWith(t, SideBlack,
		Piece{Kind: KindGeneral, Side: SideBlack, Pos: Coord{File: 4, Rank: 0}},
		Piece{Kind: KindGeneral, Side: SideRed, Pos: Coord{File: 3, Rank: 9}},
		Piece{Kind: KindChariot, Side: SideRed, Pos: Coord{File: 4, Rank: 5}},
	)
	if !b.IsInCheck(SideBlack) {
		t.Fatal("chariot on the General's open file not reported as check")
	}
	if got := b.GameState(); got != StateCheck {
		t.Fatalf("GameState = %v, want Check", got)
	}
}

func TestCannonCheckNeedsScreen(t *testing.T) {
	base := []Piece{
		{Kind: KindGeneral, Side: SideBlack, Pos: Coord{File: 4, Rank: 0}},
		{Kind: KindGeneral, Side: SideRed, Pos: Coord{File: 3, Rank: 9}},
		{Kind: KindCannon, Side: SideRed, Pos: Coord{File: 4, Rank: 6}},
	}
	if boardWith(t, SideBlack, base...).IsInCheck(SideBlack) {
		t.Fatal("cannon with no screen reported as check")
	}
	withScreen := append(append([]Piece(nil), base...),
		Piece{Kind: KindSoldier, Side: SideBlack, Pos: Coord{File: 4, Rank: 3}})
	if !boardWith(t, SideBlack, withScreen...).IsInCheck(SideBlack) {
		t.Fatal("cannon behind a screen not reported as check")
	}
}

// A horse move that uncovers a chariot behind it: the check comes from the
// stationary piece, which the legality-probe detection must still see.
func TestDiscoveredCheckDetected(t *testing.T) {
	b := boardWith(t, SideRed,
		Piece{Kind: KindGeneral, Side: SideBlack, Pos: Coord{File: 4, Rank: 0}},
		Piece{Kind: KindGeneral, Side: SideRed, Pos: Coord{File: 3, Rank: 9}},
		Piece{Kind: KindChariot, Side: SideRed, Pos: Coord{File: 4, Rank: 8}},
		Piece{Kind: KindHorse, Side: SideRed, Pos: Coord{File: 4, Rank: 5}},
	)
	if b.IsInCheck(SideBlack) {
		t.Fatal("check reported while the horse still blocks the file")
	}
	if !b.MakeMove(Move{From: Coord{File: 4, Rank: 5}, To: Coord{File: 6, Rank: 4}}) {
		t.Fatal("horse sidestep refused")
	}
	if !b.IsInCheck(SideBlack) {
		t.Fatal("discovered chariot check not detected")
	}
}

// Horse and cannon attack the General at once; a single probe pass must
// report check regardless of which attacker is found first.
func TestSimultaneousCheckDetected(t *testing.T) {
	b := boardWith(t, SideBlack,
		Piece{Kind: KindGeneral, Side: SideBlack, Pos: Coord{File: 4, Rank: 0}},
		Piece{Kind: KindGeneral, Side: SideRed, Pos: Coord{File: 3, Rank: 9}},
		Piece{Kind: KindHorse, Side: SideRed, Pos: Coord{File: 3, Rank: 2}},
		Piece{Kind: KindCannon, Side: SideRed, Pos: Coord{File: 4, Rank: 6}},
		Piece{Kind: KindSoldier, Side: SideBlack, Pos: Coord{File: 4, Rank: 4}},
	)
	if !b.IsInCheck(SideBlack) {
		t.Fatal("double attack not reported as check")
	}
}

func TestStalemateWhenNoMoveExists(t *testing.T) {
	// Black's pieces wall each other in: the General's palace exits are
	// friendly-occupied, the advisor's diagonals are friendly or outside the
	// palace, and every elephant eye is plugged. No piece attacks the
	// General, so the position is a stalemate.
	b := boardWith(t, SideBlack,
		Piece{Kind: KindGeneral, Side: SideBlack, Pos: Coord{File: 3, Rank: 0}},
		Piece{Kind: KindAdvisor, Side: SideBlack, Pos: Coord{File: 3, Rank: 1}},
		Piece{Kind: KindElephant, Side: SideBlack, Pos: Coord{File: 4, Rank: 0}},
		Piece{Kind: KindElephant, Side: SideBlack, Pos: Coord{File: 4, Rank: 2}},
		Piece{Kind: KindSoldier, Side: SideRed, Pos: Coord{File: 5, Rank: 1}},
		Piece{Kind: KindSoldier, Side: SideRed, Pos: Coord{File: 3, Rank: 3}},
		Piece{Kind: KindSoldier, Side: SideRed, Pos: Coord{File: 5, Rank: 3}},
		Piece{Kind: KindGeneral, Side: SideRed, Pos: Coord{File: 4, Rank: 9}},
	)
	if b.IsInCheck(SideBlack) {
		t.Fatal("boxed-in General unexpectedly in check")
	}
	if got := b.GameState(); got != StateStalemate {
		t.Fatalf("GameState = %v, want Stalemate", got)
	}
}

func TestCheckmateDetected(t *testing.T) {
	// A soldier checks from inside the palace. Capturing it would expose the
	// General to the flying-general rule, both flank squares are
	// friendly-occupied, and the flanking elephants have every eye plugged.
	b := boardWith(t, SideBlack,
		Piece{Kind: KindGeneral, Side: SideBlack, Pos: Coord{File: 4, Rank: 0}},
		Piece{Kind: KindElephant, Side: SideBlack, Pos: Coord{File: 3, Rank: 0}},
		Piece{Kind: KindElephant, Side: SideBlack, Pos: Coord{File: 5, Rank: 0}},
		Piece{Kind: KindSoldier, Side: SideRed, Pos: Coord{File: 4, Rank: 1}},
		Piece{Kind: KindSoldier, Side: SideRed, Pos: Coord{File: 2, Rank: 1}},
		Piece{Kind: KindSoldier, Side: SideRed, Pos: Coord{File: 6, Rank: 1}},
		Piece{Kind: KindGeneral, Side: SideRed, Pos: Coord{File: 4, Rank: 9}},
	)
	if !b.IsInCheck(SideBlack) {
		t.Fatal("soldier check not detected")
	}
	if got := b.GameState(); got != StateCheckmate {
		t.Fatalf("GameState = %v, want Checkmate", got)
	}
}
