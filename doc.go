/*
 * doc.go, part of gofep.
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

/*Package fep implements sequential Monte Carlo (sMC) estimation of free energy
differences between two thermodynamic end-states. A population of weighted
particles is annealed along an interpolation ("lambda") schedule connecting the
end-states while the importance-sampling work of every particle is accumulated.


	**goFEP capabilities**

    Anneals particle populations forward (lambda 0->1), in reverse (1->0), or
	both, either along a fixed schedule or by adaptively trailblazing the next
	schedule value from population-health diagnostics.

    Computes the effective sample size (ESS) and conditional effective sample
	size (CESS) of a weighted population, log-sum-exp stabilized.

    Resamples degenerate populations (multinomial, with room for other
	strategies) and tracks particle ancestries and survival rates.

    Estimates free energies from the accumulated work by exponential averaging
	(EXP) and, when both directions are run, by Bennett's acceptance ratio
	(BAR).

    Dispatches per-particle annealing across a pool of workers, each bound to
	its own simulation engine for the duration of a run.

    Ships a 1-D harmonic reference engine, so the whole machinery can be
	exercised, and tested against analytical results, without a molecular
	mechanics backend.

The physical simulation engine itself (energies, dynamics, equilibrium
sampling at the end-states) is a collaborator behind the Engine interface;
goFEP only owns the scheduling and the statistics.
*/
package fep
