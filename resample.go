/*
 * resample.go, part of gofep.
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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Multinomial resamples particle indices i.i.d. with replacement from the
// categorical distribution with weights proportional to exp(-totalWork).
type Multinomial struct {
	Src rand.Source //if nil, gonum's default (non-reproducible) source is used
}

// Resample draws n indices from softmax(-totalWork) and returns them together
// with the post-resample works. The returned works are the mean of totalWork
// repeated n times: after a resample every survivor is equally weighted going
// forward, so the per-particle weight information is deliberately discarded.
// This mean-reset is a documented bookkeeping convention of the method, not
// an accident; downstream estimators are tested under it.
func (M Multinomial) Resample(totalWork []float64, n int) ([]float64, []int, error) {
	if len(totalWork) == 0 {
		return nil, nil, resError("Multinomial.Resample: empty work array")
	}
	for i, v := range totalWork {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, resError("Multinomial.Resample: non-finite work %v for particle %d", v, i)
		}
	}
	lw := make([]float64, len(totalWork))
	for i, v := range totalWork {
		lw[i] = -v
	}
	norm := floats.LogSumExp(lw)
	weights := make([]float64, len(totalWork))
	for i := range weights {
		weights[i] = math.Exp(lw[i] - norm)
	}
	cat := distuv.NewCategorical(weights, M.Src)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = int(cat.Rand())
	}
	mean := stat.Mean(totalWork, nil)
	works := make([]float64, n)
	for i := range works {
		works[i] = mean
	}
	return works, indices, nil
}

//The names under which the controller accepts resampling strategies. Only
//multinomial ships; the map (and the Resampler interface) is the hook for
//residual/systematic strategies.
var supportedResamplers = map[string]func(src rand.Source) Resampler{
	"multinomial": func(src rand.Source) Resampler { return Multinomial{Src: src} },
}

// SurvivalRate returns, for each ancestry snapshot, the fraction of the
// original particles that still have at least one descendant: the number of
// distinct ancestor indices in the snapshot over the population size. The
// first snapshot (identity ancestry) always gives 1.0.
func SurvivalRate(ancestries [][]int) []float64 {
	if len(ancestries) == 0 {
		return nil
	}
	n := len(ancestries[0])
	rate := make([]float64, 0, len(ancestries))
	for _, snapshot := range ancestries {
		distinct := make(map[int]bool, n)
		for _, ancestor := range snapshot {
			distinct[ancestor] = true
		}
		rate = append(rate, float64(len(distinct))/float64(n))
	}
	return rate
}
