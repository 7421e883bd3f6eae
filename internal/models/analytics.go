package models

import "sort"

// BorrowCount pairs an aggregate id with how many loans reference it.
type BorrowCount struct {
	ID    int32
	Count int
}

// RankByBook counts loans per book inside r and returns the top count entries,
// highest first. Ties keep ascending id order.
func RankByBook(borrowings []*Borrowing, r DateRange, count int) []BorrowCount {
	return rank(borrowings, r, count, (*Borrowing).BookID)
}

// RankByBorrower is RankByBook grouped by borrower.
func RankByBorrower(borrowings []*Borrowing, r DateRange, count int) []BorrowCount {
	return rank(borrowings, r, count, (*Borrowing).BorrowerID)
}

func rank(borrowings []*Borrowing, r DateRange, count int, key func(*Borrowing) int32) []BorrowCount {
	if count <= 0 {
		return nil
	}

	counts := make(map[int32]int)
	for _, b := range borrowings {
		if b.InRange(r) {
			counts[key(b)]++
		}
	}

	ranked := make([]BorrowCount, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, BorrowCount{ID: id, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].ID < ranked[j].ID })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })

	if len(ranked) > count {
		ranked = ranked[:count]
	}
	return ranked
}
