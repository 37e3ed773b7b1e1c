/*
 * estimate_test.go, part of gofep.
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

func TestEXP(Te *testing.T) {
	//constant works: the estimate is the constant itself
	v, err := EXP([]float64{2.5, 2.5, 2.5})
	if err != nil {
		Te.Error(err)
	}
	if math.Abs(v-2.5) > 1e-12 {
		Te.Errorf("EXP of constant works is %v, want 2.5", v)
	}
	v, err = EXP(make([]float64, 10))
	if err != nil {
		Te.Error(err)
	}
	if math.Abs(v) > 1e-12 {
		Te.Errorf("EXP of zero works is %v, want 0", v)
	}
	if _, err := EXP(nil); err == nil {
		Te.Error("EXP accepted an empty work array")
	}
	//huge works must not overflow
	v, err = EXP([]float64{1000.0, 1001.0})
	if err != nil {
		Te.Error(err)
	}
	fmt.Println("EXP of huge works:", v)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		Te.Errorf("EXP of huge works is not finite: %v", v)
	}
}

func TestBARConstantWorks(Te *testing.T) {
	//with nf==nr and constant works a, b the self-consistency equation
	//reduces to a-dF = -(b+dF), i.e. dF = (a-b)/2
	forward := []float64{3.0, 3.0, 3.0, 3.0}
	reverse := []float64{1.0, 1.0, 1.0, 1.0}
	df, err := BAR(forward, reverse)
	if err != nil {
		Te.Error(err)
	}
	fmt.Println("BAR of constant works:", df)
	if math.Abs(df-1.0) > 1e-8 {
		Te.Errorf("BAR is %v, want 1", df)
	}
}

func TestBARGaussianWorks(Te *testing.T) {
	//forward works N(df+s2/2, s2) and reverse works N(-df+s2/2, s2) are
	//what a well-behaved bidirectional campaign produces; BAR must recover
	//df to sampling accuracy.
	const df = 0.7
	const sigma = 1.0
	rng := rand.New(rand.NewSource(11))
	n := 20000
	forward := make([]float64, n)
	reverse := make([]float64, n)
	for i := 0; i < n; i++ {
		forward[i] = df + sigma*sigma/2 + sigma*rng.NormFloat64()
		reverse[i] = -df + sigma*sigma/2 + sigma*rng.NormFloat64()
	}
	got, err := BAR(forward, reverse)
	if err != nil {
		Te.Error(err)
	}
	fmt.Println("BAR of overlapping gaussian works:", got)
	if math.Abs(got-df) > 0.05 {
		Te.Errorf("BAR is %v, want about %v", got, df)
	}
}

func TestBARErrors(Te *testing.T) {
	if _, err := BAR(nil, []float64{1.0}); err == nil {
		Te.Error("BAR accepted an empty forward array")
	}
	if _, err := BAR([]float64{1.0}, nil); err == nil {
		Te.Error("BAR accepted an empty reverse array")
	}
}
