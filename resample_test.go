/*
 * resample_test.go, part of gofep.
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
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestMultinomialFrequencies(Te *testing.T) {
	//equal works must give (asymptotically) equal survival frequencies
	works := []float64{7.0, 7.0, 7.0, 7.0}
	M := Multinomial{Src: rand.NewSource(42)}
	const draws = 40000
	counts := make([]int, 4)
	_, idx, err := M.Resample(works, draws)
	if err != nil {
		Te.Fatal(err)
	}
	for _, j := range idx {
		counts[j]++
	}
	fmt.Println("multinomial counts for equal works:", counts)
	for i, c := range counts {
		f := float64(c) / draws
		if math.Abs(f-0.25) > 0.02 {
			Te.Errorf("particle %d drawn with frequency %v, want about 0.25", i, f)
		}
	}
}

func TestMultinomialWeighted(Te *testing.T) {
	//particle 0 is log(3) cheaper, so it should be drawn 3 times as often
	works := []float64{0.0, math.Log(3.0)}
	M := Multinomial{Src: rand.NewSource(7)}
	const draws = 30000
	_, idx, err := M.Resample(works, draws)
	if err != nil {
		Te.Fatal(err)
	}
	var zero int
	for _, j := range idx {
		if j == 0 {
			zero++
		}
	}
	f := float64(zero) / draws
	fmt.Println("frequency of the cheap particle:", f)
	if math.Abs(f-0.75) > 0.02 {
		Te.Errorf("cheap particle drawn with frequency %v, want about 0.75", f)
	}
}

func TestMultinomialMeanReset(Te *testing.T) {
	works := []float64{1.0, 2.0, 3.0, 6.0}
	M := Multinomial{Src: rand.NewSource(1)}
	newWorks, idx, err := M.Resample(works, 4)
	if err != nil {
		Te.Fatal(err)
	}
	if len(newWorks) != 4 || len(idx) != 4 {
		Te.Fatalf("wrong output sizes: %d works, %d indices", len(newWorks), len(idx))
	}
	for _, w := range newWorks {
		if w != 3.0 {
			Te.Errorf("post-resample work is %v, want the mean, 3", w)
		}
	}
	for _, j := range idx {
		if j < 0 || j >= 4 {
			Te.Errorf("index %d out of range", j)
		}
	}
}

func TestMultinomialNonFinite(Te *testing.T) {
	M := Multinomial{Src: rand.NewSource(1)}
	if _, _, err := M.Resample([]float64{1.0, math.NaN()}, 2); err == nil {
		Te.Error("resampler accepted a NaN work")
	}
	_, _, err := M.Resample([]float64{1.0, math.Inf(1)}, 2)
	if err == nil {
		Te.Error("resampler accepted an infinite work")
	}
	if _, ok := err.(*ResamplingError); !ok {
		Te.Errorf("wrong error type %T from a non-finite work", err)
	}
	if _, _, err := M.Resample(nil, 2); err == nil {
		Te.Error("resampler accepted an empty work array")
	}
}

func TestSurvivalRate(Te *testing.T) {
	ancestries := [][]int{
		{0, 1, 2, 3},
		{0, 0, 2, 2},
		{0, 0, 0, 0},
	}
	rates := SurvivalRate(ancestries)
	want := []float64{1.0, 0.5, 0.25}
	fmt.Println("survival rates:", rates)
	for i, r := range rates {
		if r != want[i] {
			Te.Errorf("survival rate %d is %v, want %v", i, r, want[i])
		}
	}
	if SurvivalRate(nil) != nil {
		Te.Error("survival rate of no snapshots should be nil")
	}
}
