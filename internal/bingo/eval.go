package bingo

// HasWin reports whether the marked set completes at least one of the
// twelve terminal lines: 5 rows, 5 columns, 2 diagonals. The center
// free cell always counts as marked. It only reports satisfiability,
// not which line won.
func HasWin(card Card, marked []int) bool {
	set := make(map[int]bool, len(marked))
	for _, n := range marked {
		set[n] = true
	}

	covered := func(row, col int) bool {
		if card[row][col] == FreeCell {
			return true
		}
		return set[card[row][col]]
	}

	for row := 0; row < 5; row++ {
		full := true
		for col := 0; col < 5; col++ {
			if !covered(row, col) {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	for col := 0; col < 5; col++ {
		full := true
		for row := 0; row < 5; row++ {
			if !covered(row, col) {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	diag, anti := true, true
	for i := 0; i < 5; i++ {
		if !covered(i, i) {
			diag = false
		}
		if !covered(i, 4-i) {
			anti = false
		}
	}
	return diag || anti
}
