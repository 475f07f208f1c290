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

import "math"

// BalanceTolerance sets the electroneutrality acceptance thresholds. Which
// species are lumped into the generic ion pools varies between data sources,
// so both thresholds are configurable rather than hard-coded.
type BalanceTolerance struct {
	Absolute float64 // eq/L
	Relative float64 // fraction of the larger charge total
}

// DefaultBalanceTolerance returns the default 5% relative tolerance with a
// small absolute floor for near-zero ionic strength.
func DefaultBalanceTolerance() BalanceTolerance {
	return BalanceTolerance{Absolute: 1e-9, Relative: 0.05}
}

// BalanceReport is the outcome of a charge balance validation.
type BalanceReport struct {
	Balanced bool

	// Residual is Σ(positive) − Σ(negative) in eq/L at the declared pH.
	Residual float64

	// Relative is |Residual| over the larger of the two charge totals.
	Relative float64

	// CationAdjustment and AnionAdjustment are the minimal single-sided
	// additions [eq/L] to the generic ion pools that would zero the
	// residual. At most one of them is non-zero. The feedstock itself is
	// never mutated; applying a suggestion is the caller's decision.
	CationAdjustment float64
	AnionAdjustment  float64

	// PH is the declared feedstock pH the speciation was evaluated at.
	PH float64
}

// ValidateChargeBalance checks feedstock electroneutrality at the
// feedstock's declared pH: the hydrogen-ion concentration is held fixed
// rather than solved, and the declared ion totals are compared against the
// totals electroneutrality would require.
func ValidateChargeBalance(f *FeedstockState, ks EquilibriumConstants,
	tol BalanceTolerance) (*BalanceReport, error) {

	totals := ionTotalsFromVector(f.Vector())
	if err := totals.validate(); err != nil {
		return nil, err
	}
	if f.DeclaredPH < 0 || f.DeclaredPH > 14 {
		return nil, InvalidInputError{Name: "declared pH", Value: f.DeclaredPH}
	}

	h := math.Pow(10, -f.DeclaredPH)
	sp := Speciate(h, totals, ks)
	positive := totals.Cations + h + sp.NH4
	negative := totals.Anions + sp.OH + sp.HCO3 + 2*sp.CO3 +
		sp.Acetate + sp.Propionate + sp.Butyrate + sp.Valerate
	residual := positive - negative

	rep := &BalanceReport{Residual: residual, PH: f.DeclaredPH}
	denom := math.Max(positive, negative)
	if denom > 0 {
		rep.Relative = math.Abs(residual) / denom
	}
	rep.Balanced = math.Abs(residual) <= tol.Absolute || rep.Relative <= tol.Relative
	if !rep.Balanced {
		if residual > 0 {
			rep.AnionAdjustment = residual
		} else {
			rep.CationAdjustment = -residual
		}
	}
	return rep, nil
}
