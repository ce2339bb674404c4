// Package ranking places a listing's price within the prices of comparable listings.
package ranking

import (
	"math"
	"sort"

	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/similarity"
)

type PriceRank struct {
	// Percentile is 100 for the cheapest peer and 0 for the most expensive.
	Percentile int   `json:"percentile"`
	PeerCount  int   `json:"peerCount"`
	Position   int   `json:"position"`
	MinPrice   int64 `json:"minPrice"`
	MaxPrice   int64 `json:"maxPrice"`
	AvgPrice   int64 `json:"avgPrice"`
}

// Peers selects for-sale, positively priced candidates whose brand and model both
// score at least similarity.Threshold against the target. The target is always
// part of its own peer group.
func Peers(target *entity.Listing, candidates []*entity.Listing) []int64 {
	prices := []int64{target.PriceValue()}
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		if c.Status != entity.StatusSale || c.PriceValue() <= 0 {
			continue
		}
		if similarity.Score(target.Brand, c.Brand) < similarity.Threshold ||
			similarity.Score(target.Model, c.Model) < similarity.Threshold {
			continue
		}
		prices = append(prices, c.PriceValue())
	}
	return prices
}

// Rank returns nil when the target has no positive price or has no peers besides itself.
func Rank(target *entity.Listing, candidates []*entity.Listing) *PriceRank {
	if target.PriceValue() <= 0 {
		return nil
	}
	return Compute(target.PriceValue(), Peers(target, candidates))
}

// Compute ranks price within prices. It returns nil for fewer than two prices.
func Compute(price int64, prices []int64) *PriceRank {
	n := len(prices)
	if n <= 1 {
		return nil
	}

	sorted := append([]int64(nil), prices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	pos := sort.Search(n, func(i int) bool { return sorted[i] >= price })
	if pos == n {
		pos = n - 1
	}

	var sum int64
	for _, p := range sorted {
		sum += p
	}

	return &PriceRank{
		Percentile: int(math.Round(100 * float64(n-1-pos) / float64(n-1))),
		PeerCount:  n,
		Position:   pos + 1,
		MinPrice:   sorted[0],
		MaxPrice:   sorted[n-1],
		AvgPrice:   int64(math.Round(float64(sum) / float64(n))),
	}
}
