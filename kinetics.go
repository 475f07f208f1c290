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

import "sort"

// defaultKinetics holds the standard ADM1 rate and stoichiometry constants.
// First-order and Monod maximum rates are in 1/d, half-saturation and
// hydrogen inhibition constants in kg COD/m³, KI_nh3 and KS_IN in mol/L.
// Yields (Y_*) and product fractions (f_*) are dimensionless COD fractions.
var defaultKinetics = map[string]float64{
	// Disintegration and hydrolysis
	"q_dis":    0.5,
	"q_ch_hyd": 10.0,
	"q_pr_hyd": 10.0,
	"q_li_hyd": 10.0,

	// Maximum uptake rates
	"k_su":  30.0,
	"k_aa":  50.0,
	"k_fa":  6.0,
	"k_c4":  20.0,
	"k_pro": 13.0,
	"k_ac":  8.0,
	"k_h2":  35.0,

	// First-order decay rates
	"b_su":  0.02,
	"b_aa":  0.02,
	"b_fa":  0.02,
	"b_c4":  0.02,
	"b_pro": 0.02,
	"b_ac":  0.02,
	"b_h2":  0.02,

	// Half-saturation constants
	"K_su":  0.5,
	"K_aa":  0.3,
	"K_fa":  0.4,
	"K_c4":  0.2,
	"K_pro": 0.1,
	"K_ac":  0.15,
	"K_h2":  7e-6,

	// Inhibition constants
	"KI_h2_fa":  5e-6,
	"KI_h2_c4":  1e-5,
	"KI_h2_pro": 3.5e-6,
	"KI_nh3":    1.8e-3,
	"KS_IN":     1e-4,

	// Biomass yields
	"Y_su":  0.10,
	"Y_aa":  0.08,
	"Y_fa":  0.06,
	"Y_c4":  0.06,
	"Y_pro": 0.04,
	"Y_ac":  0.05,
	"Y_h2":  0.06,

	// Product fractions
	"f_bu_su":  0.13,
	"f_pro_su": 0.27,
	"f_ac_su":  0.41,
	"f_va_aa":  0.23,
	"f_bu_aa":  0.26,
	"f_pro_aa": 0.05,
	"f_ac_aa":  0.40,
	"f_ac_fa":  0.70,
	"f_pro_va": 0.54,
	"f_ac_va":  0.31,
	"f_ac_bu":  0.80,
	"f_ac_pro": 0.57,
}

// fractionParameter reports whether a kinetic parameter is a COD fraction
// constrained to [0,1] (yields and product fractions).
func fractionParameter(name string) bool {
	return len(name) > 2 && (name[0:2] == "Y_" || name[0:2] == "f_")
}

// KineticParameterNames returns the recognized kinetic parameter names in
// sorted order.
func KineticParameterNames() []string {
	names := make([]string, 0, len(defaultKinetics))
	for name := range defaultKinetics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KineticParameterSet maps rate-constant names to values. It is conceptually
// immutable once attached to a run; the simulation state copies it at run
// start, and replacing it afterwards invalidates cached results.
type KineticParameterSet struct {
	params map[string]float64
}

// NewKineticParameterSet returns the standard ADM1 parameter set.
func NewKineticParameterSet() *KineticParameterSet {
	k := &KineticParameterSet{params: make(map[string]float64, len(defaultKinetics))}
	for name, v := range defaultKinetics {
		k.params[name] = v
	}
	return k
}

// NewKineticsFromMap builds a parameter set from externally supplied
// overrides on top of the defaults. Unknown names, non-positive rate
// constants, and fractions outside [0,1] are rejected.
func NewKineticsFromMap(overrides map[string]float64) (*KineticParameterSet, error) {
	k := NewKineticParameterSet()
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := k.Set(name, overrides[name]); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// Set assigns one parameter value.
func (k *KineticParameterSet) Set(name string, v float64) error {
	if _, ok := defaultKinetics[name]; !ok {
		return InvalidParameterError{Name: name, Value: v, Reason: "unknown kinetic parameter"}
	}
	if fractionParameter(name) {
		if v < 0 || v > 1 {
			return InvalidParameterError{Name: name, Value: v, Reason: "fraction must be within [0,1]"}
		}
	} else if v <= 0 {
		return InvalidParameterError{Name: name, Value: v, Reason: "rate constant must be positive"}
	}
	k.params[name] = v
	return nil
}

// Value returns one parameter value.
func (k *KineticParameterSet) Value(name string) (float64, error) {
	v, ok := k.params[name]
	if !ok {
		return 0, InvalidParameterError{Name: name, Reason: "unknown kinetic parameter"}
	}
	return v, nil
}

// Clone returns a deep copy of the parameter set.
func (k *KineticParameterSet) Clone() *KineticParameterSet {
	c := &KineticParameterSet{params: make(map[string]float64, len(k.params))}
	for name, v := range k.params {
		c.params[name] = v
	}
	return c
}
