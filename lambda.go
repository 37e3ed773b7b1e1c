/*
 * lambda.go, part of gofep.
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
	"log"
	"sort"
)

/*A relative alchemical transformation doesn't scale every energy term with
 * the master lambda directly: sterics and electrostatics of the disappearing
 * and appearing moieties follow their own sub-schedules, staged so that a
 * charge never outlives its Lennard-Jones sphere. Molecular engines query the
 * sub-schedules through Value; the sMC controller itself only ever sees the
 * master lambda.*/

// ProtocolKind selects a family of component sub-schedules.
type ProtocolKind int

const (
	//Default stages the transformation: old sterics/electrostatics are
	//turned off in the first half of the schedule, new ones turned on in
	//the second half; core and bonded terms scale linearly.
	Default ProtocolKind = iota
	//NoAlchemy scales every component linearly with the master lambda.
	NoAlchemy
	//Custom uses caller-supplied component functions; any component not
	//supplied falls back to its Default counterpart.
	Custom
)

// ComponentFunc maps the master schedule value to one component's value.
type ComponentFunc func(x float64) float64

//The components every protocol must define.
var protocolComponents = []string{
	"sterics_core",
	"electrostatics_core",
	"sterics_insert",
	"sterics_delete",
	"electrostatics_insert",
	"electrostatics_delete",
	"bonds",
	"angles",
	"torsions",
}

func linear(x float64) float64 { return x }

var defaultFunctions = map[string]ComponentFunc{
	"sterics_core":        linear,
	"electrostatics_core": linear,
	"sterics_insert": func(x float64) float64 {
		if x < 0.5 {
			return 2.0 * x
		}
		return 1.0
	},
	"sterics_delete": func(x float64) float64 {
		if x < 0.5 {
			return 0.0
		}
		return 2.0 * (x - 0.5)
	},
	"electrostatics_insert": func(x float64) float64 {
		if x < 0.5 {
			return 0.0
		}
		return 2.0 * (x - 0.5)
	},
	"electrostatics_delete": func(x float64) float64 {
		if x < 0.5 {
			return 2.0 * x
		}
		return 1.0
	},
	"bonds":    linear,
	"angles":   linear,
	"torsions": linear,
}

// LambdaProtocol holds a validated set of component sub-schedules.
type LambdaProtocol struct {
	kind      ProtocolKind
	functions map[string]ComponentFunc
}

// NewLambdaProtocol builds a protocol of the given kind, validating it once,
// here, rather than on every lookup. For Custom, the first element of custom
// supplies the component functions; missing components are filled in from the
// Default set. Validation enforces f(0)==0 and f(1)==1 for every component
// (hard error), warns about non-monotone components on an n-point grid (some
// legitimate soft-core schedules are non-monotone, so this is not fatal), and
// rejects "naked charge" protocols in which electrostatics appear before
// sterics or outlive them.
func NewLambdaProtocol(kind ProtocolKind, custom ...map[string]ComponentFunc) (*LambdaProtocol, error) {
	L := &LambdaProtocol{kind: kind, functions: make(map[string]ComponentFunc, len(protocolComponents))}
	switch kind {
	case Default:
		for k, v := range defaultFunctions {
			L.functions[k] = v
		}
	case NoAlchemy:
		for _, k := range protocolComponents {
			L.functions[k] = linear
		}
	case Custom:
		if len(custom) == 0 || custom[0] == nil {
			return nil, confError("NewLambdaProtocol: Custom protocol requested but no functions given")
		}
		for _, k := range protocolComponents {
			if f, ok := custom[0][k]; ok {
				L.functions[k] = f
			} else {
				log.Printf("goFEP: component %s missing from custom protocol; using the default", k)
				L.functions[k] = defaultFunctions[k]
			}
		}
		for k := range custom[0] {
			if _, ok := defaultFunctions[k]; !ok {
				return nil, confError("NewLambdaProtocol: unknown component %q in custom protocol", k)
			}
		}
	default:
		return nil, confError("NewLambdaProtocol: unknown protocol kind %d", kind)
	}
	if err := L.validate(10); err != nil {
		return nil, err
	}
	return L, nil
}

//validate checks endpoints, monotonicity (on an n-point grid) and naked
//charges.
func (L *LambdaProtocol) validate(n int) error {
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = float64(i) / float64(n-1)
	}
	for _, name := range protocolComponents {
		f := L.functions[name]
		if f(0.0) != 0.0 {
			return confError("lambda component %s doesn't start at 0", name)
		}
		if f(1.0) != 1.0 {
			return confError("lambda component %s doesn't end at 1", name)
		}
		vals := make([]float64, n)
		for i, x := range grid {
			vals[i] = f(x)
		}
		if !sort.Float64sAreSorted(vals) {
			log.Printf("goFEP: lambda component %s is not monotonic; simulating with it anyway", name)
		}
	}
	//a partial charge without its steric sphere diverges, so electrostatics
	//must never lead sterics in, nor lag them out.
	for _, x := range grid {
		if L.functions["electrostatics_insert"](x) != 0.0 && L.functions["sterics_insert"](x) == 0.0 {
			return confError("naked charge: electrostatics_insert is on at lambda %4.3f but sterics_insert is not", x)
		}
		if L.functions["electrostatics_delete"](x) != 1.0 && L.functions["sterics_delete"](x) == 1.0 {
			return confError("naked charge: electrostatics_delete is off at lambda %4.3f but sterics_delete is fully on", x)
		}
	}
	return nil
}

//Kind returns the protocol's kind.
func (L *LambdaProtocol) Kind() ProtocolKind {
	return L.kind
}

//Components returns the names of the component sub-schedules, in a fixed
//order.
func (L *LambdaProtocol) Components() []string {
	ret := make([]string, len(protocolComponents))
	copy(ret, protocolComponents)
	return ret
}

//Value returns the value of the named component at the master schedule value
//x. It panics on an unknown component: asking for one is a programming error,
//not a runtime condition.
func (L *LambdaProtocol) Value(component string, x float64) float64 {
	f, ok := L.functions[component]
	if !ok {
		panic("goFEP: unknown lambda component " + component)
	}
	return f(x)
}
