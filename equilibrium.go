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
	"fmt"
	"math"
)

// EquilibriumConstants holds the acid dissociation constants used in the
// charge balance. Defaults are common literature values at 25°C.
type EquilibriumConstants struct {
	Kw     float64 // water autoionization
	KaNH4  float64 // ammonium / ammonia
	KaCO2  float64 // carbonic acid, first step
	KaHCO3 float64 // bicarbonate / carbonate, second step
	KaAc   float64 // acetic acid
	KaPro  float64 // propionic acid
	KaBu   float64 // butyric acid
	KaVa   float64 // valeric acid
}

// DefaultEquilibriumConstants returns dissociation constants from the
// standard pKa table (Kw 14.0, NH4+ 9.25, CO2 6.35, HCO3- 10.3,
// acetate 4.76, propionate 4.88, butyrate 4.82, valerate 4.86).
func DefaultEquilibriumConstants() EquilibriumConstants {
	return EquilibriumConstants{
		Kw:     math.Pow(10, -14.0),
		KaNH4:  math.Pow(10, -9.25),
		KaCO2:  math.Pow(10, -6.35),
		KaHCO3: math.Pow(10, -10.3),
		KaAc:   math.Pow(10, -4.76),
		KaPro:  math.Pow(10, -4.88),
		KaBu:   math.Pow(10, -4.82),
		KaVa:   math.Pow(10, -4.86),
	}
}

// IonTotals holds the total concentrations entering the charge balance.
// The generic ion pools are in eq/L; all others are molar totals [mol/L]
// summed over their dissociated and undissociated forms.
type IonTotals struct {
	Cations         float64 // generic strong cation pool [eq/L]
	Anions          float64 // generic strong anion pool [eq/L]
	InorganicCarbon float64 // CO2 + HCO3- + CO3-- [mol C/L]
	AmmoniaN        float64 // NH4+ + NH3 [mol N/L]
	Acetate         float64 // [mol/L]
	Propionate      float64 // [mol/L]
	Butyrate        float64 // [mol/L]
	Valerate        float64 // [mol/L]
}

func (t IonTotals) validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"total cations", t.Cations},
		{"total anions", t.Anions},
		{"total inorganic carbon", t.InorganicCarbon},
		{"total ammonia nitrogen", t.AmmoniaN},
		{"total acetate", t.Acetate},
		{"total propionate", t.Propionate},
		{"total butyrate", t.Butyrate},
		{"total valerate", t.Valerate},
	} {
		if c.v < 0 || math.IsNaN(c.v) {
			return InvalidInputError{Name: c.name, Value: c.v}
		}
	}
	return nil
}

// ionTotalsFromVector converts a state vector [kg/m³ on registry basis] into
// the molar totals used by the equilibrium solver. S_cat and S_an are in
// keq/m³, which is numerically equal to eq/L.
func ionTotalsFromVector(v []float64) IonTotals {
	at := func(id string) float64 { return v[componentIndex[id]] }
	return IonTotals{
		Cations:         at("S_cat"),
		Anions:          at("S_an"),
		InorganicCarbon: at("S_IC") / mwC,
		AmmoniaN:        at("S_IN") / mwN,
		Acetate:         at("S_ac") / codEqAc,
		Propionate:      at("S_pro") / codEqPro,
		Butyrate:        at("S_bu") / codEqBu,
		Valerate:        at("S_va") / codEqVa,
	}
}

// IonTotalsFromState converts a full state vector on the registry basis
// into ion totals, rejecting vectors of the wrong width.
func IonTotalsFromState(v []float64) (IonTotals, error) {
	if len(v) != len(componentRegistry) {
		return IonTotals{}, UnmappedComponentError{
			ID: fmt.Sprintf("state vector length %d (registry has %d)", len(v), len(componentRegistry)),
		}
	}
	return ionTotalsFromVector(v), nil
}

// Speciation holds the dissociated species concentrations [mol/L] at a
// given hydrogen-ion concentration.
type Speciation struct {
	OH         float64
	NH4        float64
	NH3        float64
	HCO3       float64
	CO3        float64
	Acetate    float64
	Propionate float64
	Butyrate   float64
	Valerate   float64
}

// Speciate distributes the ion totals over their acid/base forms at
// hydrogen-ion concentration h [mol/L].
func Speciate(h float64, t IonTotals, ks EquilibriumConstants) Speciation {
	var sp Speciation
	sp.OH = ks.Kw / h
	sp.NH3 = t.AmmoniaN * ks.KaNH4 / (ks.KaNH4 + h)
	sp.NH4 = t.AmmoniaN - sp.NH3
	sp.HCO3 = t.InorganicCarbon * ks.KaCO2 / (ks.KaCO2 + h)
	sp.CO3 = sp.HCO3 * ks.KaHCO3 / h
	sp.Acetate = t.Acetate * ks.KaAc / (ks.KaAc + h)
	sp.Propionate = t.Propionate * ks.KaPro / (ks.KaPro + h)
	sp.Butyrate = t.Butyrate * ks.KaBu / (ks.KaBu + h)
	sp.Valerate = t.Valerate * ks.KaVa / (ks.KaVa + h)
	return sp
}

// ChargeResidual is the charge balance Σ(positive) − Σ(negative) [eq/L] at
// hydrogen-ion concentration h. It is monotonically increasing in h, so a
// bracketed root search over the physiological pH domain is reliable.
func ChargeResidual(h float64, t IonTotals, ks EquilibriumConstants) float64 {
	sp := Speciate(h, t, ks)
	positive := t.Cations + h + sp.NH4
	negative := t.Anions + sp.OH + sp.HCO3 + 2*sp.CO3 +
		sp.Acetate + sp.Propionate + sp.Butyrate + sp.Valerate
	return positive - negative
}

// Root search limits for the pH solver.
const (
	phSolverMaxIter     = 200
	phSolverBracketTol  = 1e-12 // bracket width in [H+]
	phSolverResidualTol = 1e-14 // eq/L
)

// SolvePH finds the hydrogen-ion concentration at which the feedstock
// charge balance closes, searching log10[H+] over [-14, 0]. It returns the
// hydrogen-ion concentration [mol/L], the pH, and the ionic speciation at
// the root. A ConvergenceError signals physically inconsistent input.
func SolvePH(t IonTotals, ks EquilibriumConstants) (h, pH float64, sp Speciation, err error) {
	if err = t.validate(); err != nil {
		return 0, 0, Speciation{}, err
	}

	// Work in log-concentration space to avoid underflow near pH 14.
	lo, hi := -14.0, 0.0
	fLo := ChargeResidual(math.Pow(10, lo), t, ks)
	fHi := ChargeResidual(math.Pow(10, hi), t, ks)
	if fLo*fHi > 0 {
		return 0, 0, Speciation{}, ConvergenceError{
			Low:    math.Pow(10, lo),
			High:   math.Pow(10, hi),
			Reason: "no sign change in charge-balance residual over pH 0-14",
		}
	}

	var mid, fMid float64
	for i := 0; i < phSolverMaxIter; i++ {
		mid = 0.5 * (lo + hi)
		fMid = ChargeResidual(math.Pow(10, mid), t, ks)
		if math.Abs(fMid) < phSolverResidualTol ||
			math.Pow(10, hi)-math.Pow(10, lo) < phSolverBracketTol {
			h = math.Pow(10, mid)
			return h, -mid, Speciate(h, t, ks), nil
		}
		// The residual increases with [H+].
		if fMid > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	return 0, 0, Speciation{}, ConvergenceError{
		Low:        math.Pow(10, lo),
		High:       math.Pow(10, hi),
		Iterations: phSolverMaxIter,
		Reason:     "iteration cap exceeded",
	}
}
