/*
Copyright © 2025 the ADSim authors.
This file is part of ADSim.

ADSim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ADSim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ADSim.  If not, see <http://www.gnu.org/licenses/>.
*/

package adsim

import "fmt"

// ConvergenceError happens when the equilibrium solver cannot bracket or
// converge on a root of the charge-balance residual, which normally signals
// physically inconsistent input concentrations.
type ConvergenceError struct {
	// Low and High are the bracket endpoints that were tried, as
	// hydrogen-ion concentrations [mol/L].
	Low, High float64

	// Iterations is the number of iterations completed before giving up.
	Iterations int

	Reason string
}

func (e ConvergenceError) Error() string {
	return fmt.Sprintf("adsim: pH solver failed to converge in bracket [%g, %g] after %d iterations: %s",
		e.Low, e.High, e.Iterations, e.Reason)
}

// InvalidInputError happens when a concentration or derived quantity passed
// to one of the analysis functions is negative or otherwise outside of its
// physical domain. Inputs are never silently clamped; the error surfaces
// the upstream bug instead.
type InvalidInputError struct {
	Name  string
	Value float64
}

func (e InvalidInputError) Error() string {
	return fmt.Sprintf("adsim: invalid value %g for %s", e.Value, e.Name)
}

// InvalidParameterError happens when an externally supplied parameter map
// contains an unknown name or an out-of-domain value.
type InvalidParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e InvalidParameterError) Error() string {
	return fmt.Sprintf("adsim: parameter %s = %g: %s", e.Name, e.Value, e.Reason)
}

// UnmappedComponentError happens when the stream property extractor
// encounters a state-vector component that has no entry in the component
// registry. Components are never silently dropped from the output.
type UnmappedComponentError struct {
	ID string
}

func (e UnmappedComponentError) Error() string {
	return fmt.Sprintf("adsim: state vector component %q has no registry entry", e.ID)
}

// NoResultError happens when results are read from a reactor slot that has
// never completed a simulation.
type NoResultError struct {
	Reactor int
}

func (e NoResultError) Error() string {
	return fmt.Sprintf("adsim: reactor %d has no simulation result", e.Reactor)
}

// StaleResultError happens when results are read from a reactor slot whose
// result exists but predates a configuration change. Callers can either
// accept stale data explicitly or re-run the slot.
type StaleResultError struct {
	Reactor int
}

func (e StaleResultError) Error() string {
	return fmt.Sprintf("adsim: reactor %d result is stale; re-run the simulation or read with AllowStale", e.Reactor)
}

// UnsupportedMethodError happens when an integration method name is not one
// of the supported set. It is returned before the integrator is invoked.
type UnsupportedMethodError struct {
	Method string
}

func (e UnsupportedMethodError) Error() string {
	return fmt.Sprintf("adsim: unsupported integration method %q; supported methods are %v",
		e.Method, MethodNames())
}

// IntegrationError wraps a failure reported by the external integration
// collaborator. No partial result is retained when it occurs.
type IntegrationError struct {
	Reactor int
	Method  Method
	Err     error
}

func (e IntegrationError) Error() string {
	return fmt.Sprintf("adsim: reactor %d integration with method %s failed: %v",
		e.Reactor, e.Method, e.Err)
}

func (e IntegrationError) Unwrap() error { return e.Err }
