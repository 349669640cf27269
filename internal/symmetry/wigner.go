package symmetry

import (
	"math"
	"math/big"
	"sync"
)

// All spins in this file are doubled: 2j. A half-integer spin 1/2 is 1.

// triangle reports whether a, b, c satisfy the triangle condition with an
// integer total j_a + j_b + j_c.
func triangle(a, b, c int) bool {
	if a < 0 || b < 0 || c < 0 || (a+b+c)%2 != 0 {
		return false
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return c >= d && c <= a+b
}

var (
	factMu sync.Mutex
	facts  = []*big.Int{big.NewInt(1)}
)

// factorial returns n! from a shared cache. The result must not be mutated.
func factorial(n int) *big.Int {
	factMu.Lock()
	defer factMu.Unlock()
	for k := len(facts); k <= n; k++ {
		facts = append(facts, new(big.Int).Mul(facts[k-1], big.NewInt(int64(k))))
	}
	return facts[n]
}

// deltaSquared is the squared triangle coefficient
// (a+b-c)!(a-b+c)!(-a+b+c)!/(a+b+c+1)! in undoubled units.
func deltaSquared(a, b, c int) *big.Rat {
	num := new(big.Int).Mul(factorial((a+b-c)/2), factorial((a-b+c)/2))
	num.Mul(num, factorial((-a+b+c)/2))
	return new(big.Rat).SetFrac(num, factorial((a+b+c)/2+1))
}

// sixJExact evaluates the Racah formula. The symbol equals
// sign * sqrt(squared) with squared an exact rational.
func sixJExact(j1, j2, j3, j4, j5, j6 int) (squared *big.Rat, negative bool) {
	if !triangle(j1, j2, j3) || !triangle(j1, j5, j6) ||
		!triangle(j4, j2, j6) || !triangle(j4, j5, j3) {
		return new(big.Rat), false
	}
	a := [4]int{(j1 + j2 + j3) / 2, (j1 + j5 + j6) / 2, (j4 + j2 + j6) / 2, (j4 + j5 + j3) / 2}
	b := [3]int{(j1 + j2 + j4 + j5) / 2, (j2 + j3 + j5 + j6) / 2, (j3 + j1 + j6 + j4) / 2}
	tmin := max(a[0], a[1], a[2], a[3])
	tmax := min(b[0], b[1], b[2])

	sum := new(big.Rat)
	for t := tmin; t <= tmax; t++ {
		den := big.NewInt(1)
		for _, ai := range a {
			den.Mul(den, factorial(t-ai))
		}
		for _, bj := range b {
			den.Mul(den, factorial(bj-t))
		}
		term := new(big.Rat).SetFrac(factorial(t+1), den)
		if t%2 != 0 {
			term.Neg(term)
		}
		sum.Add(sum, term)
	}

	squared = new(big.Rat).Mul(sum, sum)
	squared.Mul(squared, deltaSquared(j1, j2, j3))
	squared.Mul(squared, deltaSquared(j1, j5, j6))
	squared.Mul(squared, deltaSquared(j4, j2, j6))
	squared.Mul(squared, deltaSquared(j4, j5, j3))
	return squared, sum.Sign() < 0
}

// signedSqrt converts sign*sqrt(r) to float64 with a single rounding of r.
func signedSqrt(r *big.Rat, negative bool) float64 {
	f, _ := r.Float64()
	v := math.Sqrt(f)
	if negative {
		return -v
	}
	return v
}

// SixJ returns the Wigner 6j symbol {j1 j2 j3; j4 j5 j6} of doubled spins.
// It is zero when a triangle condition fails.
func SixJ(j1, j2, j3, j4, j5, j6 int) float64 {
	sq, neg := sixJExact(j1, j2, j3, j4, j5, j6)
	return signedSqrt(sq, neg)
}

// NineJ returns the Wigner 9j symbol
//
//	{j1 j2 j3}
//	{j4 j5 j6}
//	{j7 j8 j9}
//
// of doubled spins as the standard sum over products of three 6j symbols.
func NineJ(j1, j2, j3, j4, j5, j6, j7, j8, j9 int) float64 {
	if !triangle(j1, j2, j3) || !triangle(j4, j5, j6) || !triangle(j7, j8, j9) ||
		!triangle(j1, j4, j7) || !triangle(j2, j5, j8) || !triangle(j3, j6, j9) {
		return 0
	}
	lo := max(abs(j1-j9), abs(j4-j8), abs(j2-j6))
	hi := min(j1+j9, j4+j8, j2+j6)
	var sum float64
	for x := lo; x <= hi; x++ {
		if !triangle(j1, j9, x) || !triangle(j4, j8, x) || !triangle(j2, j6, x) {
			continue
		}
		term := float64(x+1) *
			SixJ(j1, j4, j7, j8, j9, x) *
			SixJ(j2, j5, j8, j4, x, j6) *
			SixJ(j3, j6, j9, x, j1, j2)
		if x%2 != 0 {
			term = -term
		}
		sum += term
	}
	return sum
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// phase returns (-1)^(twice/2) for an even doubled exponent.
func phase(twice int) float64 {
	if (twice/2)%2 != 0 {
		return -1
	}
	return 1
}
