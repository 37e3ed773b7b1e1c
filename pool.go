/*
 * pool.go, part of gofep.
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

//future implements Future for LocalPool tasks.
type future struct {
	res  *Result
	err  error
	done chan struct{} //closed when the task finishes
}

func (f *future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *future) Get() (*Result, error) {
	<-f.done
	return f.res, f.err
}

// LocalPool runs annealing tasks on in-process workers, one goroutine per
// task, with each task holding an annealing session (and so an Engine)
// exclusively while it runs. Sessions are handed out through a channel, so at
// most len(sessions) tasks execute at once and no two tasks ever share a
// simulation context.
type LocalPool struct {
	sessions chan *Annealer
	size     int
}

// NewLocalPool builds a pool over the given annealing sessions. Each session
// must hold its own Engine; they are never shared between concurrent tasks.
func NewLocalPool(sessions []*Annealer) (*LocalPool, error) {
	if len(sessions) == 0 {
		return nil, confError("NewLocalPool: need at least one annealing session")
	}
	ch := make(chan *Annealer, len(sessions))
	for _, s := range sessions {
		if s == nil || s.Eng == nil {
			return nil, confError("NewLocalPool: nil session or session without an engine")
		}
		ch <- s
	}
	return &LocalPool{sessions: ch, size: len(sessions)}, nil
}

//Size returns the number of workers in the pool.
func (P *LocalPool) Size() int {
	return P.size
}

// Deploy launches every task and returns one future per task, in task order.
func (P *LocalPool) Deploy(tasks []*Task) []Future {
	futures := make([]Future, len(tasks))
	for i, t := range tasks {
		f := &future{done: make(chan struct{})}
		futures[i] = f
		go func(t *Task, f *future) {
			s := <-P.sessions
			defer func() { P.sessions <- s }()
			inc, elapsed, err := s.Anneal(t.State, t.Lambdas, t.Initial, t.TrajName)
			if err != nil {
				if fault, ok := err.(*PropagationFault); ok {
					fault.Particle = t.Index
				}
				f.err = err
			} else {
				f.res = &Result{Index: t.Index, Dir: t.Dir, Inc: inc, State: t.State, Elapsed: elapsed}
			}
			close(f.done)
		}(t, f)
	}
	return futures
}

// Gather waits for every future and returns the results in future order.
// On a fault it still drains all the remaining futures, so the caller can
// rely on no task being in flight afterwards, and then reports the first
// error encountered.
func (P *LocalPool) Gather(futures []Future) ([]*Result, error) {
	results := make([]*Result, len(futures))
	var first error
	for i, f := range futures {
		r, err := f.Get()
		if err != nil && first == nil {
			first = err
		}
		results[i] = r
	}
	if first != nil {
		return nil, errDecorate(first, "LocalPool.Gather")
	}
	return results, nil
}

// Progress returns how many of the given futures have finished.
func (P *LocalPool) Progress(futures []Future) int {
	var n int
	for _, f := range futures {
		if f.Done() {
			n++
		}
	}
	return n
}
