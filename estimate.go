/*
 * estimate.go, part of gofep.
 *
 * Copyright 2024 Raul Mera <rmera{at}usachDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package fep

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

/*Free energies here are reduced (beta*F), like the works they are computed
 * from. Multiply by kT yourself if you want energy units.*/

// EXP returns the exponential-averaging (Zwanzig) free energy estimate from a
// vector of per-particle works: -log( mean( exp(-w) ) ), log-sum-exp
// stabilized.
func EXP(work []float64) (float64, error) {
	if len(work) == 0 {
		return 0, diagError("EXP: empty work array")
	}
	lw := make([]float64, len(work))
	for i, v := range work {
		lw[i] = -v
	}
	return -(floats.LogSumExp(lw) - math.Log(float64(len(work)))), nil
}

//fermi is the logistic function 1/(1+exp(x)).
func fermi(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(x))
}

// BAR returns the Bennett acceptance ratio estimate of the free energy
// difference from end-state 0 to end-state 1, given the final works of a
// forward (0->1) and a reverse (1->0) population. It solves the
// self-consistency equation
//
//	sum_F fermi(M + wF - dF) = sum_R fermi(-M + wR + dF),  M = log(nF/nR)
//
// by bisection; the left-minus-right residual is monotone in dF, so the root
// is unique. The initial bracket is grown from the two one-sided EXP
// estimates.
func BAR(forward, reverse []float64) (float64, error) {
	nf, nr := len(forward), len(reverse)
	if nf == 0 || nr == 0 {
		return 0, diagError("BAR: empty work array (forward %d, reverse %d)", nf, nr)
	}
	m := math.Log(float64(nf) / float64(nr))
	residual := func(df float64) float64 {
		var left, right float64
		for _, w := range forward {
			left += fermi(m + w - df)
		}
		for _, w := range reverse {
			right += fermi(-m + w + df)
		}
		return left - right
	}
	//bracket the root starting from the unidirectional estimates
	ef, err := EXP(forward)
	if err != nil {
		return 0, errDecorate(err, "BAR")
	}
	er, err := EXP(reverse)
	if err != nil {
		return 0, errDecorate(err, "BAR")
	}
	lo := math.Min(ef, -er) - 1
	hi := math.Max(ef, -er) + 1
	for i := 0; residual(lo) > 0 || residual(hi) < 0; i++ {
		if i >= 60 {
			return 0, diagError("BAR: unable to bracket the self-consistent solution")
		}
		width := hi - lo
		lo -= width
		hi += width
	}
	for i := 0; i < 100 && hi-lo > 1e-10; i++ {
		mid := (lo + hi) * 0.5
		if residual(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) * 0.5, nil
}
