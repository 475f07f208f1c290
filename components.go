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
	"sort"
)

// Molar masses [grams per mole]
const (
	mwC = 12.011
	mwN = 14.0067
)

// COD equivalent weights of the volatile fatty acids
// [grams COD per mole of acid].
const (
	codEqAc  = 64.0  // acetate
	codEqPro = 112.0 // propionate
	codEqBu  = 160.0 // butyrate
	codEqVa  = 208.0 // valerate
)

// Component describes one entry of the ADM1 state vector.
type Component struct {
	ID   string // ADM1 identifier, e.g. "S_ac"
	Name string // descriptive property name used in stream output

	// Charge is the ionic charge contribution in keq per kg of the
	// component as measured (COD basis for VFAs, elemental basis for
	// inorganic C and N, equivalents for the generic ion pools).
	// Zero for non-ionic components.
	Charge float64

	// NContent is the nitrogen content in kg N per kg of the component
	// as measured. Zero for nitrogen-free components.
	NContent float64

	CODBearing  bool // counts toward total COD
	Particulate bool // counts toward TSS
	Volatile    bool // counts toward VSS (particulates only)
	Biomass     bool // one of the microbial biomass groups
}

// componentRegistry lists the ADM1 components in state-vector order.
// Soluble components are in kg COD/m³ except S_IC [kg C/m³], S_IN [kg N/m³]
// and the ion pools S_cat/S_an [keq/m³].
var componentRegistry = []Component{
	{ID: "S_su", Name: "monosaccharides", CODBearing: true},
	{ID: "S_aa", Name: "amino_acids", NContent: 0.098, CODBearing: true},
	{ID: "S_fa", Name: "long_chain_fatty_acids", CODBearing: true},
	{ID: "S_va", Name: "total_valerate", Charge: -1 / codEqVa, CODBearing: true},
	{ID: "S_bu", Name: "total_butyrate", Charge: -1 / codEqBu, CODBearing: true},
	{ID: "S_pro", Name: "total_propionate", Charge: -1 / codEqPro, CODBearing: true},
	{ID: "S_ac", Name: "total_acetate", Charge: -1 / codEqAc, CODBearing: true},
	{ID: "S_h2", Name: "dissolved_hydrogen", CODBearing: true},
	{ID: "S_ch4", Name: "dissolved_methane", CODBearing: true},
	{ID: "S_IC", Name: "inorganic_carbon", Charge: -1 / mwC},
	{ID: "S_IN", Name: "inorganic_nitrogen", Charge: 1 / mwN, NContent: 1},
	{ID: "S_I", Name: "soluble_inerts", NContent: 0.043, CODBearing: true},
	{ID: "X_c", Name: "composite_particulates", NContent: 0.027, CODBearing: true, Particulate: true, Volatile: true},
	{ID: "X_ch", Name: "carbohydrates", CODBearing: true, Particulate: true, Volatile: true},
	{ID: "X_pr", Name: "proteins", NContent: 0.107, CODBearing: true, Particulate: true, Volatile: true},
	{ID: "X_li", Name: "lipids", CODBearing: true, Particulate: true, Volatile: true},
	{ID: "X_su", Name: "sugar_degraders", CODBearing: true, Particulate: true, Volatile: true, Biomass: true, NContent: 0.087},
	{ID: "X_aa", Name: "amino_acid_degraders", CODBearing: true, Particulate: true, Volatile: true, Biomass: true, NContent: 0.087},
	{ID: "X_fa", Name: "lcfa_degraders", CODBearing: true, Particulate: true, Volatile: true, Biomass: true, NContent: 0.087},
	{ID: "X_c4", Name: "valerate_butyrate_degraders", CODBearing: true, Particulate: true, Volatile: true, Biomass: true, NContent: 0.087},
	{ID: "X_pro", Name: "propionate_degraders", CODBearing: true, Particulate: true, Volatile: true, Biomass: true, NContent: 0.087},
	{ID: "X_ac", Name: "acetoclastic_methanogens", CODBearing: true, Particulate: true, Volatile: true, Biomass: true, NContent: 0.087},
	{ID: "X_h2", Name: "hydrogenotrophic_methanogens", CODBearing: true, Particulate: true, Volatile: true, Biomass: true, NContent: 0.087},
	{ID: "X_I", Name: "particulate_inerts", NContent: 0.043, CODBearing: true, Particulate: true},
	{ID: "S_cat", Name: "other_cations", Charge: 1},
	{ID: "S_an", Name: "other_anions", Charge: -1},
}

var componentIndex = func() map[string]int {
	m := make(map[string]int, len(componentRegistry))
	for i, c := range componentRegistry {
		m[c.ID] = i
	}
	return m
}()

// ComponentIDs returns the ADM1 component identifiers in state-vector order.
func ComponentIDs() []string {
	ids := make([]string, len(componentRegistry))
	for i, c := range componentRegistry {
		ids[i] = c.ID
	}
	return ids
}

// ComponentByID returns the registry entry for the given ADM1 identifier.
func ComponentByID(id string) (Component, error) {
	i, ok := componentIndex[id]
	if !ok {
		return Component{}, UnmappedComponentError{ID: id}
	}
	return componentRegistry[i], nil
}

// defaultFeedstockConc holds the default influent concentrations
// for a medium-strength agricultural feedstock.
var defaultFeedstockConc = map[string]float64{
	"S_su":  0.01,
	"S_aa":  1e-3,
	"S_fa":  1e-3,
	"S_va":  1e-3,
	"S_bu":  1e-3,
	"S_pro": 1e-3,
	"S_ac":  1e-3,
	"S_h2":  1e-8,
	"S_ch4": 1e-5,
	"S_IC":  0.04 * mwC,
	"S_IN":  0.01 * mwN,
	"S_I":   0.02,
	"X_c":   2.0,
	"X_ch":  5.0,
	"X_pr":  20.0,
	"X_li":  5.0,
	"X_su":  1e-2,
	"X_aa":  1e-2,
	"X_fa":  1e-2,
	"X_c4":  1e-2,
	"X_pro": 1e-2,
	"X_ac":  1e-2,
	"X_h2":  1e-2,
	"X_I":   25.0,
	"S_cat": 0.04,
	"S_an":  0.02,
}

// FeedstockState is an ordered vector of influent component concentrations.
// Values are in kg/m³ on the basis defined by the component registry.
type FeedstockState struct {
	conc []float64

	// DeclaredPH is the pH the feedstock is assumed to be delivered at.
	// It is used by the charge balance validator; the equilibrium solver
	// computes its own pH from speciation.
	DeclaredPH float64
}

// NewFeedstockState returns a feedstock initialized to the default influent
// composition.
func NewFeedstockState() *FeedstockState {
	f := &FeedstockState{
		conc:       make([]float64, len(componentRegistry)),
		DeclaredPH: 7.0,
	}
	for id, v := range defaultFeedstockConc {
		f.conc[componentIndex[id]] = v
	}
	return f
}

// NewFeedstockFromMap builds a feedstock from an externally supplied
// concentration map, starting from the defaults. Unknown component names and
// negative concentrations are rejected.
func NewFeedstockFromMap(conc map[string]float64) (*FeedstockState, error) {
	f := NewFeedstockState()
	// Apply in sorted order so the first error is deterministic.
	ids := make([]string, 0, len(conc))
	for id := range conc {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := f.Set(id, conc[id]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Set assigns the concentration of one component.
func (f *FeedstockState) Set(id string, v float64) error {
	i, ok := componentIndex[id]
	if !ok {
		return InvalidParameterError{Name: id, Value: v, Reason: "unknown feedstock component"}
	}
	if v < 0 {
		return InvalidParameterError{Name: id, Value: v, Reason: "concentration must be non-negative"}
	}
	f.conc[i] = v
	return nil
}

// Concentration returns the concentration of one component.
func (f *FeedstockState) Concentration(id string) (float64, error) {
	i, ok := componentIndex[id]
	if !ok {
		return 0, UnmappedComponentError{ID: id}
	}
	return f.conc[i], nil
}

// Vector returns a copy of the concentrations in state-vector order.
func (f *FeedstockState) Vector() []float64 {
	v := make([]float64, len(f.conc))
	copy(v, f.conc)
	return v
}

// Clone returns a deep copy of the feedstock.
func (f *FeedstockState) Clone() *FeedstockState {
	return &FeedstockState{conc: f.Vector(), DeclaredPH: f.DeclaredPH}
}

func (f *FeedstockState) String() string {
	return fmt.Sprintf("FeedstockState(%d components, declared pH %.2f)",
		len(f.conc), f.DeclaredPH)
}
