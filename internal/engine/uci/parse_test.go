package uci

import "testing"

func TestParseBestMove(t *testing.T) {
	cases := []struct {
		line   string
		move   string
		ponder string
		ok     bool
	}{
		{"bestmove h2e2", "h2e2", "", true},
		{"bestmove h2e2 ponder h9g7", "h2e2", "h9g7", true},
		{"bestmove (none)", "", "", true},
		{"bestmove", "", "", false},
		{"info depth 3", "", "", false},
	}
	for _, c := range cases {
		mv, ok := parseBestMove(c.line)
		if ok != c.ok || mv.Move != c.move || mv.Ponder != c.ponder {
			t.Fatalf("parseBestMove(%q) = %+v ok=%v, want %q/%q ok=%v", c.line, mv, ok, c.move, c.ponder, c.ok)
		}
	}
}

func TestParseInfoAnyOrderAnySubset(t *testing.T) {
	si, ok := parseInfo("info nodes 420000 depth 12 time 981 score cp 35 pv h2e2 h9g7")
	if !ok || si.Depth != 12 || si.Nodes != 420000 || si.TimeMillis != 981 {
		t.Fatalf("parseInfo = %+v ok=%v", si, ok)
	}

	si, ok = parseInfo("info depth 3")
	if !ok || si.Depth != 3 || si.Nodes != 0 {
		t.Fatalf("parseInfo subset = %+v ok=%v", si, ok)
	}

	if _, ok := parseInfo("info string keep calm"); ok {
		t.Fatal("info line without telemetry fields reported ok")
	}
	if _, ok := parseInfo("bestmove h2e2"); ok {
		t.Fatal("non-info line reported ok")
	}
}

func TestParseOptionMultiWordName(t *testing.T) {
	opt, ok := parseOption("option name Move Overhead type spin default 10 min 0 max 5000")
	if !ok || opt.Name != "Move Overhead" || opt.Type != "spin" || opt.Default != "10" {
		t.Fatalf("parseOption = %+v ok=%v", opt, ok)
	}

	if _, ok := parseOption("option type spin"); ok {
		t.Fatal("nameless option reported ok")
	}
}
