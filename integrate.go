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

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Method identifies an integration method of the external solver.
type Method int

// Available integration methods: stiff implicit solvers and explicit
// Runge-Kutta variants.
const (
	BDF Method = iota
	RK45
	RK23
	DOP853
	Radau
	LSODA
)

var methodNames = []string{"BDF", "RK45", "RK23", "DOP853", "Radau", "LSODA"}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}
	return methodNames[m]
}

// Stiff reports whether the method is an implicit solver intended for
// stiff systems.
func (m Method) Stiff() bool {
	switch m {
	case BDF, Radau, LSODA:
		return true
	}
	return false
}

// MethodNames returns the recognized integration method names.
func MethodNames() []string {
	names := make([]string, len(methodNames))
	copy(names, methodNames)
	return names
}

// ParseMethod resolves an integration method name. Unrecognized names fail
// with UnsupportedMethodError before any integration is attempted.
func ParseMethod(name string) (Method, error) {
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return 0, UnsupportedMethodError{Method: name}
}

// Trajectory is the time series produced by an integration run. States has
// one row per time point and one column per state-vector component.
type Trajectory struct {
	Times  []float64
	States *mat.Dense
}

// NewTrajectory allocates a trajectory for n time points over a state
// vector of the registry's width.
func NewTrajectory(n int) *Trajectory {
	return &Trajectory{
		Times:  make([]float64, n),
		States: mat.NewDense(n, len(componentRegistry), nil),
	}
}

// Final returns the state vector at the last time point.
func (tr *Trajectory) Final() []float64 {
	r, _ := tr.States.Dims()
	return mat.Row(nil, r-1, tr.States)
}

// At returns the state vector at time index i.
func (tr *Trajectory) At(i int) []float64 {
	return mat.Row(nil, i, tr.States)
}

// Len returns the number of time points.
func (tr *Trajectory) Len() int { return len(tr.Times) }

// Integrator is the external time-integration collaborator. The
// biochemical process-rate model lives behind this interface; the core
// only consumes the resulting trajectory.
//
// initial is the influent state vector [kg/m³ on registry basis], volume
// the reactor liquid volume [m³], temperature in K, duration and step in
// days. Implementations report failures as-is; the simulation state wraps
// them in IntegrationError and stores no partial result.
type Integrator interface {
	Integrate(ctx context.Context, initial []float64, kinetics *KineticParameterSet,
		volume, temperature, duration, step float64, method Method) (*Trajectory, error)
}
