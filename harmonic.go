/*
 * harmonic.go, part of gofep.
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

	"golang.org/x/exp/rand"
)

/*A one-dimensional harmonic oscillator whose force constant interpolates
 * between two end states: U(x;lambda) = 0.5*(K0+lambda*(K1-K0))*x^2. Its free
 * energy difference is known in closed form, 0.5*log(K1/K0) in reduced units,
 * which makes it the reference system for testing estimators and the sMC
 * machinery end to end. It is also a perfectly serviceable Engine for toy
 * runs.*/

// Harmonic is an analytically solvable Engine over a 1D harmonic oscillator.
// Each particle carries its own random stream, so results are reproducible
// under any parallel schedule. Exact mode replaces dynamics with equilibrium
// redraws, which keeps every sampled configuration Boltzmann-distributed at
// the current schedule value; otherwise Propagate runs overdamped
// Euler-Maruyama steps of size Dt.
type Harmonic struct {
	K0, K1 float64 //end-state force constants
	Beta   float64 //inverse temperature
	Dt     float64 //Euler-Maruyama time step
	Exact  bool
	Seed   uint64
	drawn  uint64 //counter so each SampleEndstate gets its own stream
}

type harmonicState struct {
	x      float64
	lambda float64
	rng    *rand.Rand
}

// Copy derives a new particle with its own random stream, seeded from the
// parent's. Resampling duplicates therefore decorrelate immediately instead of
// shadowing each other's noise.
func (h *harmonicState) Copy() State {
	return &harmonicState{
		x:      h.x,
		lambda: h.lambda,
		rng:    rand.New(rand.NewSource(h.rng.Uint64())),
	}
}

func (h *harmonicState) Coords() []float64 {
	return []float64{h.x}
}

func (H *Harmonic) k(lambda float64) float64 {
	return H.K0 + lambda*(H.K1-H.K0)
}

func (H *Harmonic) SetLambda(st State, lambda float64) error {
	s, ok := st.(*harmonicState)
	if !ok {
		return confError("Harmonic: foreign state %T", st)
	}
	s.lambda = lambda
	return nil
}

func (H *Harmonic) ReducedPotential(st State) (float64, error) {
	s, ok := st.(*harmonicState)
	if !ok {
		return 0, confError("Harmonic: foreign state %T", st)
	}
	return 0.5 * H.Beta * H.k(s.lambda) * s.x * s.x, nil
}

// Propagate advances the particle nsteps steps at its current schedule value.
// In Exact mode a single equilibrium redraw replaces the whole stretch of
// dynamics (it consumes one normal variate regardless of nsteps, so schedules
// that differ only in step counts stay on the same random stream).
func (H *Harmonic) Propagate(st State, nsteps int) error {
	s, ok := st.(*harmonicState)
	if !ok {
		return confError("Harmonic: foreign state %T", st)
	}
	if nsteps <= 0 {
		return nil
	}
	k := H.k(s.lambda)
	if H.Exact {
		s.x = s.rng.NormFloat64() / math.Sqrt(H.Beta*k)
		return nil
	}
	noise := math.Sqrt(2.0 * H.Dt / H.Beta)
	for i := 0; i < nsteps; i++ {
		s.x += -k*s.x*H.Dt + noise*s.rng.NormFloat64()
	}
	return nil
}

// Rethermalize is a no-op: the overdamped dynamics carries no momenta.
func (H *Harmonic) Rethermalize(st State) error {
	if _, ok := st.(*harmonicState); !ok {
		return confError("Harmonic: foreign state %T", st)
	}
	return nil
}

// SampleEndstate draws an equilibrium configuration of end state 0 or 1, each
// draw on a fresh stream derived from the engine seed, so particles are
// independent from birth.
func (H *Harmonic) SampleEndstate(endstate int) (State, error) {
	var k float64
	switch endstate {
	case 0:
		k = H.K0
	case 1:
		k = H.K1
	default:
		return nil, confError("Harmonic: no end state %d here", endstate)
	}
	H.drawn++
	rng := rand.New(rand.NewSource(H.Seed + H.drawn))
	return &harmonicState{
		x:      rng.NormFloat64() / math.Sqrt(H.Beta*k),
		lambda: float64(endstate),
		rng:    rng,
	}, nil
}

//DeltaF returns the exact reduced free energy difference between the two end
//states.
func (H *Harmonic) DeltaF() float64 {
	return 0.5 * math.Log(H.K1/H.K0)
}
