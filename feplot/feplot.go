/*
 * feplot.go, part of gofep.
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

//Package feplot draws the usual diagnostic figures of an annealing run:
//the discovered (or imposed) schedules, the final work distributions and
//the component sub-schedules of a lambda protocol.
package feplot

import (
	"fmt"

	fep "github.com/rmera/gofep"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// Protocol plots each direction's schedule values against the iteration
// number and saves the figure to plotname.png. On trailblazed runs the
// spacing of the points is itself the interesting part: it narrows where the
// transformation is hard.
func Protocol(protocols map[fep.Direction][]float64, title, plotname string) error {
	if len(protocols) == 0 {
		return Error{"given no protocols", []string{"Protocol"}}
	}
	p := basicPlot(title, "iteration", "lambda")
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = true
	var args []interface{}
	for _, d := range []fep.Direction{fep.Forward, fep.Reverse} {
		proto, ok := protocols[d]
		if !ok {
			continue
		}
		pts := make(plotter.XYs, len(proto))
		for i, v := range proto {
			pts[i].X = float64(i)
			pts[i].Y = v
		}
		args = append(args, d.String(), pts)
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return Error{err.Error(), []string{"Protocol"}}
	}
	if err := p.Save(5*vg.Inch, 5*vg.Inch, fmt.Sprintf("%s.png", plotname)); err != nil {
		return Error{err.Error(), []string{"Protocol"}}
	}
	return nil
}

// WorkHist plots a histogram of per-particle accumulated works, normalized to
// unit area, and saves it to plotname.png. Overlapping forward and (negated)
// reverse histograms are the classic eyeball check of a BAR estimate.
func WorkHist(work []float64, nbins int, title, plotname string) error {
	if len(work) == 0 {
		return Error{"given no works", []string{"WorkHist"}}
	}
	if nbins <= 0 {
		nbins = 16
	}
	p := basicPlot(title, "reduced work", "density")
	h, err := plotter.NewHist(plotter.Values(work), nbins)
	if err != nil {
		return Error{err.Error(), []string{"WorkHist"}}
	}
	h.Normalize(1)
	p.Add(h)
	if err := p.Save(5*vg.Inch, 5*vg.Inch, fmt.Sprintf("%s.png", plotname)); err != nil {
		return Error{err.Error(), []string{"WorkHist"}}
	}
	return nil
}

// Components plots every component sub-schedule of a lambda protocol against
// the master schedule value, on an npoints grid, and saves the figure to
// plotname.png.
func Components(L *fep.LambdaProtocol, npoints int, title, plotname string) error {
	if L == nil {
		return Error{"given a nil protocol", []string{"Components"}}
	}
	if npoints < 2 {
		npoints = 100
	}
	p := basicPlot(title, "master lambda", "component lambda")
	p.X.Min, p.X.Max = 0, 1
	p.Legend.Top = true
	p.Legend.Left = true
	var args []interface{}
	for _, name := range L.Components() {
		pts := make(plotter.XYs, npoints)
		for i := range pts {
			x := float64(i) / float64(npoints-1)
			pts[i].X = x
			pts[i].Y = L.Value(name, x)
		}
		args = append(args, name, pts)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return Error{err.Error(), []string{"Components"}}
	}
	if err := p.Save(6*vg.Inch, 5*vg.Inch, fmt.Sprintf("%s.png", plotname)); err != nil {
		return Error{err.Error(), []string{"Components"}}
	}
	return nil
}

// Error is the plotting error type.
type Error struct {
	message string
	deco    []string
}

func (err Error) Error() string {
	return "goFEP/feplot: " + err.message
}

//Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}
