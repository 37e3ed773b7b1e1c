/*
 * smc.go, part of gofep.
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
	"fmt"
	"log"
	"math"
	"path/filepath"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// TrailblazeSpec asks for the schedule to be built adaptively as the run
// progresses, instead of being given up front.
type TrailblazeSpec struct {
	Criterion     string  //"ESS" or "CESS"
	Threshold     float64 //in (0,1]: fraction of the criterion's ideal value
	MaxIterations int     //bisection iterations, 0 for the default
	Precision     float64 //bisection tolerance, 0 for the default
}

// ResampleSpec asks for the population to be resampled whenever a diagnostic,
// normalized by the population size, decays to Threshold or below.
type ResampleSpec struct {
	Criterion string  //"ESS" or "CESS"
	Method    string  //"multinomial"
	Threshold float64 //in (0,1]
}

// Options configures a controller run. Engine-level knobs (integration steps
// per schedule increment, rethermalization, timing) belong to the annealing
// sessions the pool was built over, not here.
type Options struct {
	Particles  int
	Directions []Direction
	//Protocols gives a fixed schedule per direction; it is mutually
	//exclusive with Trailblaze, which builds the schedule on the fly.
	Protocols  map[Direction][]float64
	Trailblaze *TrailblazeSpec
	Resample   *ResampleSpec
	//Seed seeds the resampler. Particle noise is seeded by the Engine.
	Seed uint64
	//TrajDir/TrajPrefix enable per-particle frame logs on fixed-protocol
	//runs without resampling; empty TrajPrefix disables them.
	TrajDir    string
	TrajPrefix string
}

//population is the per-direction bookkeeping of a run.
type population struct {
	dir      Direction
	states   []State
	protocol []float64   //schedule values reached so far
	works    [][]float64 //cumulative works, one snapshot per schedule value
	ancestry [][]int     //original-ancestor indices, appended on resample
	obs      []float64   //normalized diagnostic, one value per schedule value
	timings  [][]float64 //per-particle elapsed seconds, if the sessions time
	active   bool
}

func (p *population) cum() []float64 {
	return p.works[len(p.works)-1]
}

// SMC runs annealed sequential Monte Carlo between two end states: per
// direction, a population of particles is dragged along the schedule, its
// nonequilibrium works accumulated, its health watched, and, if so configured,
// its members resampled when the health decays. One SMC value is good for one
// Run.
type SMC struct {
	eng       Engine
	pool      Pool
	opts      Options
	trail     *Trailblazer
	trailObs  Observable
	resampler Resampler
	resObs    Observable
	pops      map[Direction]*population
	ran       bool
}

// NewSMC validates the whole configuration eagerly, so a run never dies
// mid-flight over a typo. eng is the controller's own Engine, used for
// end-state sampling and trailblazing probes; the pool's sessions each hold
// their own.
func NewSMC(eng Engine, pool Pool, opts Options) (*SMC, error) {
	if eng == nil || pool == nil {
		return nil, confError("NewSMC: nil engine or pool")
	}
	if opts.Particles <= 0 {
		return nil, confError("NewSMC: need a positive number of particles, got %d", opts.Particles)
	}
	if len(opts.Directions) == 0 {
		return nil, confError("NewSMC: no directions requested")
	}
	seen := make(map[Direction]bool)
	for _, d := range opts.Directions {
		if d != Forward && d != Reverse {
			return nil, confError("NewSMC: %v", d)
		}
		if seen[d] {
			return nil, confError("NewSMC: direction %v requested twice", d)
		}
		seen[d] = true
	}
	if (opts.Trailblaze == nil) == (opts.Protocols == nil) {
		return nil, confError("NewSMC: give either fixed protocols or a trailblazing spec, and not both")
	}
	S := &SMC{eng: eng, pool: pool, opts: opts}
	if tb := opts.Trailblaze; tb != nil {
		o, ok := supportedObservables[tb.Criterion]
		if !ok {
			return nil, confError("NewSMC: unsupported trailblazing criterion %q", tb.Criterion)
		}
		if tb.Threshold <= 0 || tb.Threshold > 1 {
			return nil, confError("NewSMC: trailblazing threshold %v outside (0,1]", tb.Threshold)
		}
		S.trailObs = o
		S.trail = &Trailblazer{Eng: eng, MaxIterations: tb.MaxIterations, Precision: tb.Precision}
	} else {
		for _, d := range opts.Directions {
			if err := checkProtocol(opts.Protocols[d], d); err != nil {
				return nil, err
			}
		}
	}
	if rs := opts.Resample; rs != nil {
		o, ok := supportedObservables[rs.Criterion]
		if !ok {
			return nil, confError("NewSMC: unsupported resampling criterion %q", rs.Criterion)
		}
		mk, ok := supportedResamplers[rs.Method]
		if !ok {
			return nil, confError("NewSMC: unsupported resampling method %q", rs.Method)
		}
		if rs.Threshold <= 0 || rs.Threshold > 1 {
			return nil, confError("NewSMC: resampling threshold %v outside (0,1]", rs.Threshold)
		}
		S.resObs = o
		S.resampler = mk(rand.NewSource(opts.Seed))
	}
	if opts.TrajPrefix != "" && (opts.Trailblaze != nil || opts.Resample != nil) {
		return nil, confError("NewSMC: frame logs are only written on fixed-protocol runs without resampling")
	}
	return S, nil
}

//checkProtocol validates a fixed schedule for a direction: right endpoints,
//strictly toward the terminus, inside [0,1].
func checkProtocol(proto []float64, d Direction) error {
	if len(proto) < 2 {
		return confError("NewSMC: the %v protocol needs at least 2 schedule values, got %d", d, len(proto))
	}
	if proto[0] != d.Origin() || proto[len(proto)-1] != d.Terminus() {
		return confError("NewSMC: the %v protocol must go from %1.0f to %1.0f", d, d.Origin(), d.Terminus())
	}
	for i := 1; i < len(proto); i++ {
		if proto[i] < 0 || proto[i] > 1 {
			return confError("NewSMC: the %v protocol leaves [0,1] at %v", d, proto[i])
		}
		step := proto[i] - proto[i-1]
		if d == Reverse {
			step = -step
		}
		if step <= 0 {
			return confError("NewSMC: the %v protocol must move strictly toward the terminus; it doesn't at index %d", d, i)
		}
	}
	return nil
}

//seed draws the initial population of each requested direction from its
//origin end-state ensemble.
func (S *SMC) seed() error {
	S.pops = make(map[Direction]*population, len(S.opts.Directions))
	n := S.opts.Particles
	for _, d := range S.opts.Directions {
		p := &population{
			dir:      d,
			states:   make([]State, n),
			protocol: []float64{d.Origin()},
			works:    [][]float64{make([]float64, n)},
			ancestry: [][]int{make([]int, n)},
			obs:      []float64{1.0},
			active:   true,
		}
		for i := range p.states {
			st, err := S.eng.SampleEndstate(d.Endstate())
			if err != nil {
				return errDecorate(err, "SMC.Run")
			}
			p.states[i] = st
			p.ancestry[0][i] = i
		}
		S.pops[d] = p
	}
	return nil
}

// Run performs the whole annealing campaign and leaves the results in the
// controller, to be read through the accessors. When neither trailblazing nor
// resampling was requested the run degenerates to annealed importance
// sampling, and each particle traverses its whole protocol in a single task;
// otherwise the run proceeds one schedule increment at a time, with a full
// barrier between increments.
func (S *SMC) Run() error {
	if S.ran {
		return confError("SMC.Run: this controller has already run")
	}
	S.ran = true
	if err := S.seed(); err != nil {
		return err
	}
	if S.opts.Trailblaze == nil && S.opts.Resample == nil {
		return S.runAIS()
	}
	return S.runIterative()
}

//runAIS anneals every particle through its full protocol in one task.
func (S *SMC) runAIS() error {
	var tasks []*Task
	for _, d := range S.opts.Directions {
		p := S.pops[d]
		for i, st := range p.states {
			tasks = append(tasks, &Task{
				Index:    i,
				Dir:      d,
				State:    st,
				Lambdas:  S.opts.Protocols[d],
				Initial:  true,
				TrajName: S.trajName(d, i),
			})
		}
	}
	results, err := S.pool.Gather(S.pool.Deploy(tasks))
	if err != nil {
		return err
	}
	perDir := make(map[Direction][]*Result)
	for _, r := range results {
		perDir[r.Dir] = append(perDir[r.Dir], r)
	}
	for _, d := range S.opts.Directions {
		p := S.pops[d]
		proto := S.opts.Protocols[d]
		n := len(p.states)
		incs := make([][]float64, n)
		for _, r := range perDir[d] {
			incs[r.Index] = r.Inc
			p.states[r.Index] = r.State
			if r.Elapsed != nil {
				if p.timings == nil {
					p.timings = make([][]float64, n)
				}
				p.timings[r.Index] = r.Elapsed
			}
		}
		//rebuild the per-step cumulative snapshots from the increments
		for s := 0; s < len(proto)-1; s++ {
			cum := make([]float64, n)
			copy(cum, p.cum())
			for i := 0; i < n; i++ {
				cum[i] += incs[i][s]
			}
			p.works = append(p.works, cum)
			p.protocol = append(p.protocol, proto[s+1])
		}
		p.active = false
	}
	return nil
}

//runIterative advances every active direction one schedule increment per
//round, trailblazing and/or resampling between increments.
func (S *SMC) runIterative() error {
	for {
		iterStart := time.Now()
		type step struct {
			d    Direction
			next float64
			obs  float64
		}
		var steps []step
		var tasks []*Task
		for _, d := range S.opts.Directions {
			p := S.pops[d]
			if !p.active {
				continue
			}
			next, obs, err := S.nextLambda(p)
			if err != nil {
				return err
			}
			steps = append(steps, step{d, next, obs})
			current := p.protocol[len(p.protocol)-1]
			for i, st := range p.states {
				tasks = append(tasks, &Task{
					Index:   i,
					Dir:     d,
					State:   st,
					Lambdas: []float64{current, next},
					Initial: len(p.protocol) == 1,
				})
			}
		}
		if len(steps) == 0 {
			return nil
		}
		results, err := S.pool.Gather(S.pool.Deploy(tasks))
		if err != nil {
			return err
		}
		perDir := make(map[Direction][]*Result)
		for _, r := range results {
			perDir[r.Dir] = append(perDir[r.Dir], r)
		}
		for _, st := range steps {
			p := S.pops[st.d]
			n := len(p.states)
			inc := make([]float64, n)
			for _, r := range perDir[st.d] {
				inc[r.Index] = floats.Sum(r.Inc)
				p.states[r.Index] = r.State
				if r.Elapsed != nil {
					if p.timings == nil {
						p.timings = make([][]float64, n)
					}
					p.timings[r.Index] = append(p.timings[r.Index], r.Elapsed...)
				}
			}
			if err := S.account(p, st.next, inc, st.obs); err != nil {
				return err
			}
			log.Printf("goFEP: %v population advanced to lambda %5.4f in %v", st.d, st.next, time.Since(iterStart))
			if st.next == p.dir.Terminus() {
				p.active = false
				log.Printf("goFEP: %v population reached its terminus after %d schedule values", p.dir, len(p.protocol))
			}
		}
	}
}

//nextLambda picks the next schedule value for a population, from its fixed
//protocol or by trailblazing; on trailblazed runs it also returns the
//normalized diagnostic at the chosen value.
func (S *SMC) nextLambda(p *population) (float64, float64, error) {
	if S.opts.Trailblaze == nil {
		return S.opts.Protocols[p.dir][len(p.protocol)], 1.0, nil
	}
	current := p.protocol[len(p.protocol)-1]
	terminus := p.dir.Terminus()
	threshold := S.opts.Trailblaze.Threshold * p.obs[len(p.obs)-1]
	//seed the bisection with a linear extrapolation of the last stride,
	//clamped to the terminus so a flat stretch can accept it in one probe
	var guess []float64
	if n := len(p.protocol); n >= 2 {
		g := 2*p.protocol[n-1] - p.protocol[n-2]
		if p.dir == Forward {
			g = math.Min(g, terminus)
		} else {
			g = math.Max(g, terminus)
		}
		if g != current {
			guess = []float64{g}
		}
	}
	return S.trail.Search(p.states, p.cum(), current, terminus, S.trailObs, threshold, guess...)
}

//account folds one increment's works into a population, resampling it if the
//diagnostic says so.
func (S *SMC) account(p *population, next float64, inc []float64, tbObs float64) error {
	n := len(p.states)
	total := make([]float64, n)
	copy(total, p.cum())
	floats.Add(total, inc)
	p.protocol = append(p.protocol, next)
	if S.resampler == nil {
		//no resampling: the trailblazer's diagnostic is the recorded
		//observable, so the trailblazing threshold compounds over the run
		p.works = append(p.works, total)
		p.obs = append(p.obs, tbObs)
		return nil
	}
	o, err := S.resObs(p.cum(), inc)
	if err != nil {
		return errDecorate(err, "SMC.Run")
	}
	normalized := o / float64(n)
	if normalized > S.opts.Resample.Threshold {
		p.works = append(p.works, total)
		p.obs = append(p.obs, normalized)
		return nil
	}
	newWorks, idx, err := S.resampler.Resample(total, n)
	if err != nil {
		return errDecorate(err, "SMC.Run")
	}
	old := p.states
	p.states = make([]State, n)
	prevAnc := p.ancestry[len(p.ancestry)-1]
	anc := make([]int, n)
	for i, j := range idx {
		p.states[i] = old[j].Copy()
		anc[i] = prevAnc[j]
	}
	p.works = append(p.works, newWorks)
	p.ancestry = append(p.ancestry, anc)
	//a freshly resampled population is unweighted again
	p.obs = append(p.obs, 1.0)
	log.Printf("goFEP: resampled the %v population at lambda %5.4f (diagnostic at %5.4f)", p.dir, next, normalized)
	return nil
}

func (S *SMC) trajName(d Direction, i int) string {
	if S.opts.TrajPrefix == "" {
		return ""
	}
	return filepath.Join(S.opts.TrajDir, fmt.Sprintf("%s_%v_%03d.stz", S.opts.TrajPrefix, d, i))
}

func (S *SMC) pop(d Direction) (*population, error) {
	if !S.ran {
		return nil, confError("SMC: no results before Run")
	}
	p, ok := S.pops[d]
	if !ok {
		return nil, confError("SMC: the %v direction was not part of this run", d)
	}
	return p, nil
}

// Protocol returns the schedule a direction's population traversed. On
// trailblazed runs this is the protocol discovered by the run.
func (S *SMC) Protocol(d Direction) ([]float64, error) {
	p, err := S.pop(d)
	if err != nil {
		return nil, err
	}
	return append([]float64{}, p.protocol...), nil
}

// CumulativeWork returns the final per-particle accumulated works of a
// direction.
func (S *SMC) CumulativeWork(d Direction) ([]float64, error) {
	p, err := S.pop(d)
	if err != nil {
		return nil, err
	}
	return append([]float64{}, p.cum()...), nil
}

// WorkHistory returns one cumulative-work snapshot per schedule value, the
// first of them all zeros.
func (S *SMC) WorkHistory(d Direction) ([][]float64, error) {
	p, err := S.pop(d)
	if err != nil {
		return nil, err
	}
	ret := make([][]float64, len(p.works))
	for i, w := range p.works {
		ret[i] = append([]float64{}, w...)
	}
	return ret, nil
}

// Observables returns the normalized diagnostic recorded at each schedule
// value: 1.0 at the origin and after every resampling event; on
// trailblaze-only runs, the trailblazer's diagnostic at each discovered value.
func (S *SMC) Observables(d Direction) ([]float64, error) {
	p, err := S.pop(d)
	if err != nil {
		return nil, err
	}
	return append([]float64{}, p.obs...), nil
}

// SurvivalRates returns, for the origin and then each resampling event, the
// fraction of the original particles still represented in the population.
func (S *SMC) SurvivalRates(d Direction) ([]float64, error) {
	p, err := S.pop(d)
	if err != nil {
		return nil, err
	}
	return SurvivalRate(p.ancestry), nil
}

// Timings returns the per-particle elapsed seconds per schedule increment, or
// nil if the pool's sessions don't time their steps.
func (S *SMC) Timings(d Direction) ([][]float64, error) {
	p, err := S.pop(d)
	if err != nil {
		return nil, err
	}
	return p.timings, nil
}

// FreeEnergy returns the exponential-averaging estimate of the reduced free
// energy difference along a direction, i.e. from its origin end state to its
// terminus (so the Reverse value estimates -(F1-F0)).
func (S *SMC) FreeEnergy(d Direction) (float64, error) {
	p, err := S.pop(d)
	if err != nil {
		return 0, err
	}
	df, err := EXP(p.cum())
	if err != nil {
		return 0, errDecorate(err, "SMC.FreeEnergy")
	}
	return df, nil
}

// BidirectionalFreeEnergy returns the Bennett acceptance ratio estimate of
// the reduced free energy difference from end state 0 to end state 1. It
// needs both directions in the run.
func (S *SMC) BidirectionalFreeEnergy() (float64, error) {
	fw, err := S.pop(Forward)
	if err != nil {
		return 0, err
	}
	rv, err := S.pop(Reverse)
	if err != nil {
		return 0, err
	}
	df, err := BAR(fw.cum(), rv.cum())
	if err != nil {
		return 0, errDecorate(err, "SMC.BidirectionalFreeEnergy")
	}
	return df, nil
}
