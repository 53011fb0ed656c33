package bingo

import (
	"math/rand"
	"sync"
	"time"
)

// FreeCell is the sentinel value of the center cell. It is never a
// callable number and is always treated as marked.
const FreeCell = 0

const (
	// MaxNumber is the highest callable number; numbers run 1..75.
	MaxNumber = 75

	columnSpan = 15
)

// Card is a 5x5 grid indexed [row][col]. Column c holds five distinct
// values from [15c+1, 15c+15]; the center cell is FreeCell.
type Card [5][5]int

var (
	cardRngMu sync.Mutex
	cardRng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewCard generates a fresh randomized card. Cross-column duplicates
// cannot occur because the column ranges are disjoint.
func NewCard() Card {
	cardRngMu.Lock()
	defer cardRngMu.Unlock()

	var c Card
	for col := 0; col < 5; col++ {
		perm := cardRng.Perm(columnSpan)
		for row := 0; row < 5; row++ {
			c[row][col] = col*columnSpan + perm[row] + 1
		}
	}
	c[2][2] = FreeCell
	return c
}

// Contains reports whether n appears on the card. FreeCell is not a
// number and never matches.
func (c Card) Contains(n int) bool {
	if n == FreeCell {
		return false
	}
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			if c[row][col] == n {
				return true
			}
		}
	}
	return false
}

// Letter returns the column label for a called number: B 1-15, I 16-30,
// N 31-45, G 46-60, O 61-75.
func Letter(n int) string {
	switch {
	case n >= 1 && n <= 15:
		return "B"
	case n <= 30:
		return "I"
	case n <= 45:
		return "N"
	case n <= 60:
		return "G"
	case n <= 75:
		return "O"
	default:
		return ""
	}
}
