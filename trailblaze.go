/*
 * trailblaze.go, part of gofep.
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
)

// Trailblazer adaptively picks the next schedule value for a population: the
// value closest to the terminus for which a population-health observable,
// evaluated on the hypothetical incremental works of jumping there, does not
// fall below a threshold. It holds its own Engine for the energy probes and
// never mutates particle configurations: probes only move a state's schedule
// point, which is restored before returning.
type Trailblazer struct {
	Eng           Engine
	MaxIterations int     //bisection iterations; 0 means the default, 20
	Precision     float64 //bracket tolerance; 0 means the default, 1e-6
}

// Search bisects [current, terminus] (possibly descending) for the next
// schedule value. At each candidate, the trial incremental work of every
// particle is the difference between its reduced potential at the candidate
// and at current (the latter evaluated once and cached), and the observable,
// normalized by the population size, is compared against threshold. An
// optional initial guess seeds the first midpoint. Search returns the chosen
// value, exactly equal to terminus whenever the threshold is never violated
// short of it, along with the normalized observable there.
func (T *Trailblazer) Search(states []State, priorWork []float64, current, terminus float64, obs Observable, threshold float64, initialGuess ...float64) (float64, float64, error) {
	if len(states) == 0 || len(states) != len(priorWork) {
		return 0, 0, diagError("Trailblazer.Search: population (%d states) and prior works (%d) don't match", len(states), len(priorWork))
	}
	maxit := T.MaxIterations
	if maxit <= 0 {
		maxit = 20
	}
	prec := T.Precision
	if prec <= 0 {
		prec = 1e-6
	}
	n := float64(len(states))
	//reduced potentials at the current schedule value, evaluated once
	cur := make([]float64, len(states))
	for i, st := range states {
		if err := T.Eng.SetLambda(st, current); err != nil {
			return 0, 0, errDecorate(err, "Trailblazer.Search")
		}
		rp, err := T.Eng.ReducedPotential(st)
		if err != nil {
			return 0, 0, errDecorate(err, "Trailblazer.Search")
		}
		cur[i] = rp
	}
	inc := make([]float64, len(states))
	probe := func(lambda float64) (float64, error) {
		for i, st := range states {
			if err := T.Eng.SetLambda(st, lambda); err != nil {
				return 0, errDecorate(err, "Trailblazer.Search")
			}
			rp, err := T.Eng.ReducedPotential(st)
			if err != nil {
				return 0, errDecorate(err, "Trailblazer.Search")
			}
			inc[i] = rp - cur[i]
		}
		o, err := obs(priorWork, inc)
		if err != nil {
			return 0, errDecorate(err, "Trailblazer.Search")
		}
		return o / n, nil
	}
	start, end := current, terminus
	mid := (start + end) * 0.5
	if len(initialGuess) > 0 {
		mid = initialGuess[0]
	}
	var obsval float64
	var err error
	for it := 0; it < maxit; it++ {
		obsval, err = probe(mid)
		if err != nil {
			return 0, 0, err
		}
		if obsval <= threshold {
			end = mid //too far: shrink back toward current
		} else {
			start = mid //still healthy: push toward the terminus
		}
		mid = (start + end) * 0.5
		if math.Abs(terminus-mid) <= prec {
			mid = terminus
			break
		}
		if math.Abs(end-start) <= prec {
			mid = end //the terminus-ward endpoint of the bracket
			break
		}
	}
	obsval, err = probe(mid)
	if err != nil {
		return 0, 0, err
	}
	//probing must not leak into the particles' schedule point
	for _, st := range states {
		if err := T.Eng.SetLambda(st, current); err != nil {
			return 0, 0, errDecorate(err, "Trailblazer.Search")
		}
	}
	return mid, obsval, nil
}
