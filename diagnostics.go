/*
 * diagnostics.go, part of gofep.
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

/*Both diagnostics follow Eqs. 3.15 and 3.16 of Zhou, Johansen and Aston
 * (arXiv:1303.3123). Work values can easily reach hundreds of kT, so all the
 * sums of exponentials are evaluated in log space; a naive exp-and-sum
 * overflows long before the population actually degenerates.*/

//checkWorks validates a (prior, incremental) work array pair.
func checkWorks(prior, incremental []float64, caller string) error {
	if len(prior) == 0 || len(incremental) == 0 {
		return diagError("%s: empty work array", caller)
	}
	if len(prior) != len(incremental) {
		return diagError("%s: prior and incremental works differ in length: %d, %d", caller, len(prior), len(incremental))
	}
	return nil
}

//logWeights fills dst with the log of the normalized weights of the
//population, log(softmax(-prior)).
func logWeights(prior []float64, dst []float64) []float64 {
	for i, v := range prior {
		dst[i] = -v
	}
	norm := floats.LogSumExp(dst)
	for i := range dst {
		dst[i] -= norm
	}
	return dst
}

// ESS returns the effective sample size of a population with accumulated
// works prior after one more step of incremental works:
// (sum w_i*v_i)^2 / sum (w_i*v_i)^2, with w=softmax(-prior) and
// v_i=exp(-incremental_i). The value is in (0, N]; N means a fully healthy,
// effectively unweighted population.
func ESS(prior, incremental []float64) (float64, error) {
	if err := checkWorks(prior, incremental, "ESS"); err != nil {
		return 0, err
	}
	lw := logWeights(prior, make([]float64, len(prior)))
	a := make([]float64, len(prior))  //log(w_i * v_i)
	a2 := make([]float64, len(prior)) //log((w_i * v_i)^2)
	for i := range prior {
		a[i] = lw[i] - incremental[i]
		a2[i] = 2 * a[i]
	}
	return math.Exp(2*floats.LogSumExp(a) - floats.LogSumExp(a2)), nil
}

// CESS returns the conditional effective sample size,
// N * (sum w_i*v_i)^2 / sum w_i*v_i^2, with w and v as in ESS. Unlike ESS it
// measures the degradation caused by the current step alone, so it is not
// confounded by weight collapse accumulated in earlier steps. The value is in
// (0, N], and equals N when the incremental works are constant.
func CESS(prior, incremental []float64) (float64, error) {
	if err := checkWorks(prior, incremental, "CESS"); err != nil {
		return 0, err
	}
	lw := logWeights(prior, make([]float64, len(prior)))
	a := make([]float64, len(prior)) //log(w_i * v_i)
	b := make([]float64, len(prior)) //log(w_i * v_i^2)
	for i := range prior {
		a[i] = lw[i] - incremental[i]
		b[i] = lw[i] - 2*incremental[i]
	}
	n := float64(len(prior))
	return n * math.Exp(2*floats.LogSumExp(a)-floats.LogSumExp(b)), nil
}

//The names under which the controller accepts diagnostic criteria.
var supportedObservables = map[string]Observable{
	"ESS":  ESS,
	"CESS": CESS,
}
