/*
 * errors.go, part of gofep.
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

import "fmt"

//This error system predates the "wrapping" errors of Go (the "%w" directive and
//the errors package). The Decorate method allows adding information to an error
//as it travels up the calling stack, without changing its type.

// Error is the interface for errors that all packages in this library implement.
type Error interface {
	Error() string
	Decorate(string) []string //Adds the given string to the "decoration" slice and returns the current slice. If given an empty string, it just returns the current value. Each element should be the name of a function in the calling stack, optionally followed by extra information, as in "FunctionName: Extra info".
}

// ConfigurationError reports mutually exclusive or otherwise unusable options.
// It is always produced before any annealing work starts, never mid-run.
type ConfigurationError struct {
	message string
	deco    []string
}

func confError(format string, a ...interface{}) *ConfigurationError {
	return &ConfigurationError{message: fmt.Sprintf(format, a...)}
}

func (e *ConfigurationError) Error() string {
	return "goFEP: configuration: " + e.message
}

func (e *ConfigurationError) Decorate(deco string) []string {
	if deco != "" {
		e.deco = append(e.deco, deco)
	}
	return e.deco
}

// DiagnosticError reports malformed numeric input to a population-health
// diagnostic (mismatched lengths, empty arrays). It indicates a corrupted
// upstream computation, so it aborts the run and is never retried.
type DiagnosticError struct {
	message string
	deco    []string
}

func diagError(format string, a ...interface{}) *DiagnosticError {
	return &DiagnosticError{message: fmt.Sprintf(format, a...)}
}

func (e *DiagnosticError) Error() string {
	return "goFEP: diagnostic: " + e.message
}

func (e *DiagnosticError) Decorate(deco string) []string {
	if deco != "" {
		e.deco = append(e.deco, deco)
	}
	return e.deco
}

// ResamplingError reports non-finite work values handed to a resampler.
// As with DiagnosticError, it aborts the run.
type ResamplingError struct {
	message string
	deco    []string
}

func resError(format string, a ...interface{}) *ResamplingError {
	return &ResamplingError{message: fmt.Sprintf(format, a...)}
}

func (e *ResamplingError) Error() string {
	return "goFEP: resampling: " + e.message
}

func (e *ResamplingError) Decorate(deco string) []string {
	if deco != "" {
		e.deco = append(e.deco, deco)
	}
	return e.deco
}

// PropagationFault reports a failure inside a worker while propagating a
// particle or evaluating its energy (e.g. a numerical blow-up). The particle's
// trajectory for the failing segment is lost; the controller surfaces the
// fault instead of silently substituting the previous configuration, and no
// automatic retry is attempted, as blindly re-running an unstable trajectory
// risks biasing the estimator.
type PropagationFault struct {
	Particle int     //index of the failing particle, or -1 if not known
	Lambda   float64 //schedule value at which the fault happened
	message  string
	deco     []string
}

func propFault(particle int, lambda float64, format string, a ...interface{}) *PropagationFault {
	return &PropagationFault{Particle: particle, Lambda: lambda, message: fmt.Sprintf(format, a...)}
}

func (e *PropagationFault) Error() string {
	return fmt.Sprintf("goFEP: propagation fault (particle %d, lambda %4.3f): %s", e.Particle, e.Lambda, e.message)
}

func (e *PropagationFault) Decorate(deco string) []string {
	if deco != "" {
		e.deco = append(e.deco, deco)
	}
	return e.deco
}

//errDecorate asserts that err implements Error and decorates it with the
//caller's name before returning it. It panics on a non-goFEP error.
func errDecorate(err error, caller string) error {
	err2 := err.(Error)
	err2.Decorate(caller)
	return err2
}
