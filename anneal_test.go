/*
 * anneal_test.go, part of gofep.
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
	"path/filepath"
	"testing"

	"github.com/rmera/gofep/traj"
)

func TestAnnealBookkeeping(Te *testing.T) {
	H := &Harmonic{K0: 1.0, K1: 3.0, Beta: 1.0, Exact: true, Seed: 17}
	A := &Annealer{Eng: H, NSteps: 1, ReturnTimer: true}
	st, err := H.SampleEndstate(0)
	if err != nil {
		Te.Fatal(err)
	}
	lambdas := []float64{0.0, 0.25, 0.5, 0.75, 1.0}
	inc, elapsed, err := A.Anneal(st, lambdas, true)
	if err != nil {
		Te.Fatal(err)
	}
	if len(inc) != 4 {
		Te.Fatalf("got %d increments for a 5-value schedule", len(inc))
	}
	if len(elapsed) != 4 {
		Te.Fatalf("asked for timings and got %d of them", len(elapsed))
	}
	for i, e := range elapsed {
		if e < 0 {
			Te.Errorf("negative elapsed time %v at step %d", e, i)
		}
	}
	fmt.Println("increments:", inc)
	//growing force constant, positive configuration energy: every
	//increment is nonnegative here since x^2 >= 0
	for i, w := range inc {
		if w < 0 {
			Te.Errorf("negative increment %v at step %d of a stiffening oscillator", w, i)
		}
	}
	if l := st.(*harmonicState).lambda; l != 1.0 {
		Te.Errorf("the particle ended at lambda %v, want 1", l)
	}
	//too short a schedule
	if _, _, err := A.Anneal(st, []float64{0.0}, false); err == nil {
		Te.Error("accepted a single-value schedule")
	}
}

func TestAnnealFrameLog(Te *testing.T) {
	H := &Harmonic{K0: 1.0, K1: 3.0, Beta: 1.0, Exact: true, Seed: 19}
	st, err := H.SampleEndstate(0)
	if err != nil {
		Te.Fatal(err)
	}
	lambdas := []float64{0.0, 0.25, 0.5, 0.75, 1.0}
	//asking for a file without a save interval is a configuration error
	A := &Annealer{Eng: H, NSteps: 1}
	if _, _, err := A.Anneal(st, lambdas, true, "somewhere.stf"); err == nil {
		Te.Fatal("accepted a frame log request without a save interval")
	}
	//an unwritable path must surface as a decoratable error, not a panic
	A = &Annealer{Eng: H, NSteps: 1, SaveInterval: 2}
	bad := filepath.Join(Te.TempDir(), "no", "such", "dir", "particle.stf")
	_, _, err = A.Anneal(st, lambdas, true, bad)
	if err == nil {
		Te.Fatal("annealed into a directory that doesn't exist")
	}
	if _, ok := err.(Error); !ok {
		Te.Fatalf("a bad frame-log path surfaced as %T, which can't be decorated", err)
	}
	name := filepath.Join(Te.TempDir(), "particle.stf")
	if _, _, err := A.Anneal(st, lambdas, true, name); err != nil {
		Te.Fatal(err)
	}
	r, _, err := traj.New(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if r.Len() != 1 {
		Te.Errorf("frames hold %d coordinates, want 1", r.Len())
	}
	var frames int
	for {
		_, _, err := r.Next(nil)
		if err != nil {
			if !traj.IsLastFrame(err) {
				Te.Fatal(err)
			}
			break
		}
		frames++
	}
	//4 schedule increments at a save interval of 2: frames at steps 0 and 2
	if frames != 2 {
		Te.Errorf("the log holds %d frames, want 2", frames)
	}
}
