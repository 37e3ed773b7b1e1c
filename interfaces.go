/*
 * interfaces.go, part of gofep.
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

/*The idea is that the sMC machinery never looks inside a configuration: the
 * engine owns it. The controller only ever moves opaque State handles around,
 * so the same controller drives a 1-D toy oscillator or a solvated protein,
 * as long as something implements Engine for it.*/

// State is an opaque configuration handle owned by a simulation Engine, plus
// whatever the engine needs to attach to it (schedule point, RNG stream...).
type State interface {

	//Copy returns an independent copy of the state. Resampling uses it to
	//duplicate surviving ancestors, so the copy must not share mutable
	//innards (nor a random stream) with the original.
	Copy() State
}

// Coordser is optionally implemented by states whose configuration can be
// flattened to a coordinate slice, which enables trajectory saving. States
// that don't implement it are silently skipped by the frame log; persistence
// is a side channel, irrelevant to the free energy result.
type Coordser interface {
	Coords() []float64
}

// Engine is the contract with the physical simulation backend. An Engine must
// be deterministic for a fixed seed, and must treat a Propagate call with zero
// steps as a no-op (potential-only evaluation). Each worker of a pool owns its
// Engine exclusively; the controller holds one more for trailblazing probes.
type Engine interface {

	//SetLambda points the state's Hamiltonian at the given schedule value.
	//It must not alter the configuration itself.
	SetLambda(st State, lambda float64) error

	//Propagate advances the dynamics of st for nsteps integration steps at
	//the state's current schedule value. nsteps==0 must be a no-op.
	Propagate(st State, nsteps int) error

	//Rethermalize redraws the momenta (or whatever plays their role) of st
	//from the thermal distribution.
	Rethermalize(st State) error

	//ReducedPotential returns beta*U for the configuration of st at the
	//state's current schedule value. It must not mutate st.
	ReducedPotential(st State) (float64, error)

	//SampleEndstate draws an i.i.d. configuration from the equilibrium
	//ensemble of the given end-state (0 or 1). Molecular backends will
	//typically serve persisted, decorrelated equilibrium snapshots here.
	SampleEndstate(endstate int) (State, error)
}

// Direction is the sense in which a population traverses the lambda schedule.
type Direction int

const (
	Forward Direction = iota //lambda 0 -> 1
	Reverse                  //lambda 1 -> 0
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	}
	return "invalid direction"
}

//Origin returns the schedule value at which the direction starts.
func (d Direction) Origin() float64 {
	if d == Reverse {
		return 1.0
	}
	return 0.0
}

//Terminus returns the schedule value at which the direction ends.
func (d Direction) Terminus() float64 {
	if d == Reverse {
		return 0.0
	}
	return 1.0
}

//Endstate returns the end-state (0 or 1) whose equilibrium ensemble seeds
//the direction's particles.
func (d Direction) Endstate() int {
	if d == Reverse {
		return 1
	}
	return 0
}

// Task is one unit of annealing work: run one particle through a contiguous
// piece of a direction's schedule.
type Task struct {
	Index    int       //particle slot in its direction's population
	Dir      Direction //direction the particle belongs to
	State    State
	Lambdas  []float64 //the sub-schedule to traverse, at least 2 values
	Initial  bool      //propagate at Lambdas[0] before any work accounting
	TrajName string    //frame-log file, or "" for no saving
}

// Result is the outcome of a successfully annealed Task.
type Result struct {
	Index   int
	Dir     Direction
	Inc     []float64 //per-step incremental work, len(Lambdas)-1 values
	State   State     //the configuration at the last schedule value
	Elapsed []float64 //per-step wall-clock seconds, or nil if not timed
}

// Future is a handle to an annealing task in flight.
type Future interface {

	//Done reports, without blocking, whether the task has finished.
	Done() bool

	//Get blocks until the task finishes and returns its result or fault.
	Get() (*Result, error)
}

// Pool scatters annealing tasks over workers and gathers them back. Every
// worker is bound for the duration of a run to one annealing session holding
// a live Engine; gathers are full barriers, which the controller relies on
// for consistent resampling.
type Pool interface {

	//Deploy hands every task to some worker and returns one future per
	//task, in task order.
	Deploy(tasks []*Task) []Future

	//Gather waits for all the given futures. Results come back in future
	//order. If any task faulted, Gather still drains the rest (so the
	//barrier holds) and then returns the first fault.
	Gather(futures []Future) ([]*Result, error)

	//Progress returns, without blocking, how many of the futures are done.
	Progress(futures []Future) int
}

// Observable is a population-health diagnostic over unnormalized work arrays:
// the accumulated works at the previous step and the incremental works of the
// current one.
type Observable func(prior, incremental []float64) (float64, error)

// Resampler draws a new population index set from per-particle total works.
type Resampler interface {

	//Resample converts totalWork to normalized weights and draws n indices
	//from them. It returns the post-resample works and the drawn indices.
	Resample(totalWork []float64, n int) ([]float64, []int, error)
}
