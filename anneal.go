/*
 * anneal.go, part of gofep.
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
	"time"

	"github.com/rmera/gofep/traj"
)

// Annealer is a per-worker annealing session. It is bound to one Engine for
// the duration of a run and receives its configuration once, at construction;
// tasks are then addressed to it through the pool. One Annealer must never be
// driven from two goroutines at once: the pool guarantees that.
type Annealer struct {
	Eng          Engine
	NSteps       int  //integration steps after each schedule increment
	Rethermalize bool //redraw momenta after every propagation
	ReturnTimer  bool //collect per-step wall-clock times
	SaveInterval int  //save a frame every this many steps; 0 disables saving
}

// Anneal runs one particle through the contiguous sub-schedule lambdas,
// mutating st in place, and returns the per-step incremental works and, if
// the session collects timings, the per-step elapsed seconds.
//
// The incremental work of a step is beta*(U(x;lambda_next)-U(x;lambda_cur))
// with the *same* configuration x under both schedule values; only then is
// the configuration propagated under lambda_next. Evaluating the energy delta
// before propagating is what makes the accumulated work a valid
// nonequilibrium work estimator, so the order of operations here is fixed.
//
// If initial is true the particle is propagated at lambdas[0] before any
// work accounting, to decorrelate the freshly drawn end-state configuration;
// that propagation contributes no work. Any failure aborts the whole call
// with a PropagationFault: partial results are never returned.
func (A *Annealer) Anneal(st State, lambdas []float64, initial bool, trajName ...string) ([]float64, []float64, error) {
	if len(lambdas) < 2 {
		return nil, nil, confError("Annealer.Anneal: need at least 2 schedule values, got %d", len(lambdas))
	}
	var w *traj.Writer
	if len(trajName) > 0 && trajName[0] != "" {
		if A.SaveInterval <= 0 {
			return nil, nil, confError("Annealer.Anneal: a trajectory file was requested but the save interval is unset")
		}
		if co, ok := st.(Coordser); ok {
			var err error
			w, err = traj.NewWriter(trajName[0], len(co.Coords()), nil)
			if err != nil {
				return nil, nil, errDecorate(err, "Annealer.Anneal")
			}
			defer w.Close()
		}
		//states that can't surrender coordinates are just not saved
	}
	inc := make([]float64, len(lambdas)-1)
	var elapsed []float64
	if A.ReturnTimer {
		elapsed = make([]float64, len(lambdas)-1)
	}
	if err := A.Eng.SetLambda(st, lambdas[0]); err != nil {
		return nil, nil, propFault(-1, lambdas[0], "%s", err.Error())
	}
	if initial {
		if err := A.Eng.Rethermalize(st); err != nil {
			return nil, nil, propFault(-1, lambdas[0], "%s", err.Error())
		}
		if err := A.Eng.Propagate(st, A.NSteps); err != nil {
			return nil, nil, propFault(-1, lambdas[0], "%s", err.Error())
		}
	}
	var cum float64 //running sum for the frame log only
	for i, lambda := range lambdas[1:] {
		var start time.Time
		if A.ReturnTimer {
			start = time.Now()
		}
		old, err := A.Eng.ReducedPotential(st)
		if err != nil {
			return nil, nil, propFault(-1, lambdas[i], "%s", err.Error())
		}
		if err := A.Eng.SetLambda(st, lambda); err != nil {
			return nil, nil, propFault(-1, lambda, "%s", err.Error())
		}
		next, err := A.Eng.ReducedPotential(st)
		if err != nil {
			return nil, nil, propFault(-1, lambda, "%s", err.Error())
		}
		inc[i] = next - old
		cum += inc[i]
		if err := A.Eng.Propagate(st, A.NSteps); err != nil {
			return nil, nil, propFault(-1, lambda, "%s", err.Error())
		}
		if A.Rethermalize {
			if err := A.Eng.Rethermalize(st); err != nil {
				return nil, nil, propFault(-1, lambda, "%s", err.Error())
			}
		}
		if w != nil && i%A.SaveInterval == 0 {
			if err := w.WNext(lambda, cum, st.(Coordser).Coords()); err != nil {
				return nil, nil, errDecorate(err, "Annealer.Anneal")
			}
		}
		if A.ReturnTimer {
			elapsed[i] = time.Since(start).Seconds()
		}
	}
	return inc, elapsed, nil
}
