package xiangqi

import "testing"

const initialFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w - - 0 1"

func TestEncodeFENInitialPosition(t *testing.T) {
	b := NewBoard()
	b.SetupInitialPosition()
	if got := b.EncodeFEN(); got != initialFEN {
		t.Fatalf("EncodeFEN = %q, want %q", got, initialFEN)
	}
}

func TestEncodeFENSideToMoveToken(t *testing.T) {
	b := NewBoard()
	b.SetupInitialPosition()
	if !b.MakeMove(Move{From: mustCoord(t, 0, 6), To: mustCoord(t, 0, 5)}) {
		t.Fatal("soldier push refused")
	}
	fen := b.EncodeFEN()
	want := "rnbakabnr/9/1c5c1/p1p1p1p1p/9/P8/2P1P1P1P/1C5C1/9/RNBAKABNR b - - 0 1"
	if fen != want {
		t.Fatalf("EncodeFEN = %q, want %q", fen, want)
	}
}

func TestDecodeFENRoundTrip(t *testing.T) {
	decoded, err := DecodeFEN(initialFEN)
	if err != nil {
		t.Fatalf("DecodeFEN: %v", err)
	}
	if got := len(decoded.Pieces()); got != 32 {
		t.Fatalf("decoded piece count = %d, want 32", got)
	}
	if decoded.SideToMove() != SideRed {
		t.Fatalf("decoded side = %v, want Red", decoded.SideToMove())
	}
	if got := decoded.EncodeFEN(); got != initialFEN {
		t.Fatalf("re-encode = %q, want %q", got, initialFEN)
	}
}

func TestDecodeFENRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"rnbakabnr/9/1c5c1 w - - 0 1",
		"xnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w - - 0 1",
		"rnbakabnr/8/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w - - 0 1",
	}
	for _, fen := range cases {
		if _, err := DecodeFEN(fen); err == nil {
			t.Fatalf("DecodeFEN(%q) succeeded, want error", fen)
		}
	}
}

func TestMoveTokenRankAxisInversion(t *testing.T) {
	// Internal ranks count from Black's back rank down; the wire counts from
	// Red's side up. The classic central-cannon move lands as h2e2.
	m := Move{From: Coord{File: 7, Rank: 7}, To: Coord{File: 4, Rank: 7}}
	if got := m.Token(); got != "h2e2" {
		t.Fatalf("Token = %q, want h2e2", got)
	}

	from, to, err := ParseMoveToken("h2e2")
	if err != nil {
		t.Fatalf("ParseMoveToken: %v", err)
	}
	if from != m.From || to != m.To {
		t.Fatalf("ParseMoveToken = %v -> %v, want %v -> %v", from, to, m.From, m.To)
	}
}

func TestMoveTokenRoundTripAgainstBoard(t *testing.T) {
	b := NewBoard()
	b.SetupInitialPosition()
	moves := []Move{
		{From: mustCoord(t, 7, 7), To: mustCoord(t, 4, 7)},
		{From: mustCoord(t, 0, 6), To: mustCoord(t, 0, 5)},
		{From: mustCoord(t, 1, 9), To: mustCoord(t, 2, 7)},
	}
	for _, m := range moves {
		from, to, err := ParseMoveToken(m.Token())
		if err != nil {
			t.Fatalf("ParseMoveToken(%q): %v", m.Token(), err)
		}
		if from != m.From || to != m.To {
			t.Fatalf("round trip of %q: got %v -> %v", m.Token(), from, to)
		}
		if _, ok := b.PieceAt(from); !ok {
			t.Fatalf("token %q references empty origin %v", m.Token(), from)
		}
	}
}

func TestParseMoveTokenRejectsBadInput(t *testing.T) {
	for _, tok := range []string{"", "h2e", "h2e22", "z2e2", "hXe2"} {
		if _, _, err := ParseMoveToken(tok); err == nil {
			t.Fatalf("ParseMoveToken(%q) succeeded, want error", tok)
		}
	}
}
