package weights

import (
	"math/big"
	"slices"
	"strconv"
)

// ComputeCutoffHeight returns cemented - offset, clamped at zero
func ComputeCutoffHeight(cemented, offset uint64) uint64 {
	if cemented <= offset {
		return 0
	}
	return cemented - offset
}

// Unit returns 10^exponent, the whole-unit scale applied before the supply limit
func Unit(exponent uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exponent)), nil)
}

// SupplyMax computes floor(floor(total / unit) * limit) * unit.
// Sub-unit precision is dropped before the limit is applied, so the result is
// always a whole number of units and may differ from total*limit.
func SupplyMax(total *big.Int, limit float64, unit *big.Int) *big.Int {
	units := new(big.Int).Quo(total, unit)

	scaled := new(big.Rat).SetInt(units)
	scaled.Mul(scaled, limitRat(limit))

	floored := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	return floored.Mul(floored, unit)
}

// limitRat converts limit via its shortest decimal form, so 0.99 is exactly 99/100
func limitRat(limit float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(limit, 'g', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(limit)
	}
	return r
}

// SelectRepresentatives orders entries by weight, heaviest first, and accepts them
// until a zero weight is met (excluded) or the accepted total reaches the supply
// limit (the entry crossing it is included). Equal weights keep their input order.
// entries is not modified.
func SelectRepresentatives(entries []Representative, limit float64, unit *big.Int) Result {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Representative) int {
		return b.Weight.Cmp(a.Weight)
	})

	totalSupply := new(big.Int)
	for _, rep := range sorted {
		totalSupply.Add(totalSupply, rep.Weight)
	}

	result := Result{
		Total:       new(big.Int),
		TotalSupply: totalSupply,
		SupplyMax:   SupplyMax(totalSupply, limit, unit),
	}

	for _, rep := range sorted {
		if rep.Weight.Sign() == 0 {
			break
		}

		result.Accepted = append(result.Accepted, rep)
		result.Total.Add(result.Total, rep.Weight)

		if result.Total.Cmp(result.SupplyMax) >= 0 {
			break
		}
	}
	result.Count = len(result.Accepted)

	return result
}
