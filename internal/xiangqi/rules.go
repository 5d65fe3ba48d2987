package xiangqi

// IsLegal reports whether m is a legal move for the side to move. Violations
// are boolean refusals, never errors, so callers can surface them as ordinary
// user feedback.
func (b *Board) IsLegal(m Move) bool {
	mover, ok := b.pieces[m.From]
	if !ok || mover.Side != b.sideToMove {
		return false
	}
	return b.isLegalFor(mover, m.To)
}

// isLegalFor evaluates the per-kind movement law for mover toward to,
// ignoring whose turn it is. Check probing needs this to ask whether an
// enemy piece could reach a square on its next turn.
func (b *Board) isLegalFor(mover Piece, to Coord) bool {
	if !to.Valid() || to == mover.Pos {
		return false
	}
	if target, ok := b.pieces[to]; ok && target.Side == mover.Side {
		return false
	}

	from := mover.Pos
	df := to.File - from.File
	dr := to.Rank - from.Rank

	switch mover.Kind {
	case KindChariot:
		return b.countBetween(from, to) == 0

	case KindHorse:
		if !(abs(df) == 1 && abs(dr) == 2) && !(abs(df) == 2 && abs(dr) == 1) {
			return false
		}
		// The blocking leg sits one step from the origin along the long axis.
		leg := from
		if abs(df) == 2 {
			leg.File += df / 2
		} else {
			leg.Rank += dr / 2
		}
		return !b.occupied(leg)

	case KindElephant:
		if abs(df) != 2 || abs(dr) != 2 {
			return false
		}
		if to.AcrossRiver(mover.Side) {
			return false
		}
		eye := Coord{File: from.File + df/2, Rank: from.Rank + dr/2}
		return !b.occupied(eye)

	case KindAdvisor:
		return abs(df) == 1 && abs(dr) == 1 && to.InPalace(mover.Side)

	case KindGeneral:
		if abs(df)+abs(dr) != 1 || !to.InPalace(mover.Side) {
			return false
		}
		return !b.generalsWouldFace(mover, to)

	case KindCannon:
		screens := b.countBetween(from, to)
		if screens < 0 {
			return false
		}
		if b.occupied(to) {
			return screens == 1
		}
		return screens == 0

	case KindSoldier:
		if df == 0 && dr == mover.Side.forward() {
			return true
		}
		// Sideways steps unlock only after crossing the river; backward
		// steps never do.
		return abs(df) == 1 && dr == 0 && from.AcrossRiver(mover.Side)

	default:
		return false
	}
}

// countBetween returns the number of occupied squares strictly between from
// and to along a shared file or rank, or -1 if the squares are not aligned.
func (b *Board) countBetween(from, to Coord) int {
	if from.File != to.File && from.Rank != to.Rank {
		return -1
	}
	df := sign(to.File - from.File)
	dr := sign(to.Rank - from.Rank)
	n := 0
	for c := (Coord{File: from.File + df, Rank: from.Rank + dr}); c != to; c.File, c.Rank = c.File+df, c.Rank+dr {
		if b.occupied(c) {
			n++
		}
	}
	return n
}

// generalsWouldFace reports whether moving general to its destination would
// leave the two Generals on the same file with no piece between them. The
// vacated origin square does not count as a blocker.
func (b *Board) generalsWouldFace(general Piece, to Coord) bool {
	enemy, ok := b.findGeneral(general.Side.Opposite())
	if !ok || enemy.Pos.File != to.File {
		return false
	}
	lo, hi := to.Rank, enemy.Pos.Rank
	if lo > hi {
		lo, hi = hi, lo
	}
	for rank := lo + 1; rank < hi; rank++ {
		c := Coord{File: to.File, Rank: rank}
		if c == general.Pos {
			continue
		}
		if b.occupied(c) {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
