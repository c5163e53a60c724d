package measure

import (
	"math/big"
	"strings"
)

// Format renders m as the mixed number nearest to it whose fractional part
// has a denominator of at most maxDenominator. A value that already fits, such
// as 1/3 at sixteenths, is printed as is. When two candidates are equally near
// the one farther from zero wins. Whole values have no fractional part, values
// below one inch are a bare fraction, and a negative sign is carried on the
// leading term only ("-24 1/2", "-3/4").
// A maxDenominator below 1 falls back to DefaultMaxDenominator.
func Format(m Measurement, maxDenominator int64) string {
	return formatRat(Nearest(m, maxDenominator).rat())
}

// FormatRounded renders m snapped to the 1/graduation grid, the way a tape
// is read on the shop floor: 12.3 at sixteenths is "12 5/16".
func FormatRounded(m Measurement, graduation int64) string {
	return formatRat(Round(m, graduation).rat())
}

// Nearest returns the best rational approximation of m with a denominator of
// at most maxDenominator, found by walking the continued fraction of |m|.
func Nearest(m Measurement, maxDenominator int64) Measurement {
	if maxDenominator < 1 {
		maxDenominator = DefaultMaxDenominator
	}
	r := m.rat()
	limit := big.NewInt(maxDenominator)
	if r.Denom().Cmp(limit) <= 0 {
		return Measurement{r: new(big.Rat).Set(r)}
	}

	target := new(big.Rat).Abs(r)
	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(target.Num())
	d := new(big.Int).Set(target.Denom())
	for d.Sign() != 0 {
		a, rem := new(big.Int).QuoRem(n, d, new(big.Int))
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(limit) > 0 {
			break
		}
		p2 := new(big.Int).Add(p0, new(big.Int).Mul(a, p1))
		p0, q0, p1, q1 = p1, q1, p2, q2
		n, d = d, rem
	}

	// semiconvergent below the limit vs the last convergent
	k := new(big.Int).Quo(new(big.Int).Sub(limit, q0), q1)
	semi := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	conv := new(big.Rat).SetFrac(p1, q1)

	best := conv
	dSemi := new(big.Rat).Abs(new(big.Rat).Sub(semi, target))
	dConv := new(big.Rat).Abs(new(big.Rat).Sub(conv, target))
	switch c := dSemi.Cmp(dConv); {
	case c < 0:
		best = semi
	case c == 0 && semi.Cmp(conv) > 0:
		best = semi
	}
	if r.Sign() < 0 {
		best.Neg(best)
	}
	return Measurement{r: best}
}

// Round snaps m to the nearest multiple of 1/graduation, half away from zero.
func Round(m Measurement, graduation int64) Measurement {
	if graduation < 1 {
		graduation = DefaultMaxDenominator
	}
	r := m.rat()
	if r.Sign() == 0 {
		return Measurement{}
	}
	g := big.NewInt(graduation)
	scaled := new(big.Int).Mul(new(big.Int).Abs(r.Num()), g)
	q, rem := new(big.Int).QuoRem(scaled, r.Denom(), new(big.Int))
	if new(big.Int).Lsh(rem, 1).Cmp(r.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if r.Sign() < 0 {
		q.Neg(q)
	}
	return Measurement{r: new(big.Rat).SetFrac(q, g)}
}

func formatRat(r *big.Rat) string {
	if r.Sign() == 0 {
		return "0"
	}
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()
	whole, rem := new(big.Int).QuoRem(num, den, new(big.Int))

	var b strings.Builder
	if r.Sign() < 0 {
		b.WriteByte('-')
	}
	switch {
	case rem.Sign() == 0:
		b.WriteString(whole.String())
	case whole.Sign() == 0:
		b.WriteString(rem.String())
		b.WriteByte('/')
		b.WriteString(den.String())
	default:
		b.WriteString(whole.String())
		b.WriteByte(' ')
		b.WriteString(rem.String())
		b.WriteByte('/')
		b.WriteString(den.String())
	}
	return b.String()
}
