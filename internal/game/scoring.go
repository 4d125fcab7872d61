package game

import (
	"sort"

	"github.com/grandsalon/hautemonde/internal/deck"
)

// Score computes the final status value of a set of status cards. The stage
// order is fixed and order within a stage does not matter:
//
//  1. sum luxury faces, passé subtracts 5 (even with no luxuries)
//  2. double once per prestige card
//  3. halve once if the scandale is held, rounding down
//  4. clamp at zero
//
// The faux pas never affects the score; its damage is the discarded luxury.
func Score(status []deck.Card) int {
	base := 0
	prestige := 0
	scandale := false
	for _, c := range status {
		switch c.Kind {
		case deck.Prestige:
			prestige++
		case deck.Scandale:
			scandale = true
		default:
			base = c.Contribution(base)
		}
	}

	score := base
	for i := 0; i < prestige; i++ {
		score *= 2
	}
	if scandale {
		score = floorHalve(score)
	}
	if score < 0 {
		score = 0
	}
	return score
}

// floorHalve divides by two rounding toward negative infinity, which matters
// for odd negative totals before the clamp.
func floorHalve(v int) int {
	if v >= 0 || v%2 == 0 {
		return v / 2
	}
	return v/2 - 1
}

// Ranking is one row of the final standings.
type Ranking struct {
	Player         *Player
	Score          int
	RemainingMoney int
	CastOut        bool
}

// Rank produces the final standings. Players holding the least money are
// cast out and cannot win, regardless of score; a tie for least casts out
// everyone in it, except when the whole table ties, which casts out nobody.
// The rest rank by score, then remaining money, then the highest single
// luxury card. Cast-out players follow in seat order.
func Rank(players []*Player) []Ranking {
	minMoney := 0
	for i, p := range players {
		if m := p.TotalRemainingMoney(); i == 0 || m < minMoney {
			minMoney = m
		}
	}
	allTied := true
	for _, p := range players {
		if p.TotalRemainingMoney() != minMoney {
			allTied = false
			break
		}
	}

	var survivors, castOuts []Ranking
	for _, p := range players {
		r := Ranking{
			Player:         p,
			Score:          Score(p.StatusCards()),
			RemainingMoney: p.TotalRemainingMoney(),
		}
		if !allTied && r.RemainingMoney == minMoney {
			r.CastOut = true
			castOuts = append(castOuts, r)
		} else {
			survivors = append(survivors, r)
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.RemainingMoney != b.RemainingMoney {
			return a.RemainingMoney > b.RemainingMoney
		}
		return a.Player.HighestLuxuryValue() > b.Player.HighestLuxuryValue()
	})

	return append(survivors, castOuts...)
}
