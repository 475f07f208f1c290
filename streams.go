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
	"strconv"
	"strings"

	"github.com/ctessum/unit"
)

// Gas constants used to convert dissolved gas precursors to standard
// volumetric flows.
const (
	mwCO2 = 44.01

	densityCH4 = 0.716  // kg/Nm³
	densityCO2 = 1.977  // kg/Nm³
	densityH2  = 0.0899 // kg/Nm³

	codPerKgCH4 = 4.0 // kg COD per kg CH4
	codPerKgH2  = 8.0 // kg COD per kg H2
)

// Unit dimensions for stream properties.
var (
	concDims = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -3} // kg/m³
	flowDims = unit.Dimensions{unit.LengthDim: 3, unit.TimeDim: -1} // m³/d
	eqDims   = unit.Dimensions{unit.LengthDim: -3}                  // eq/m³
)

// StreamID identifies a process stream: "influent", "effluentN", or
// "biogasN" where N is the reactor index.
type StreamID string

// Influent is the shared feed stream.
const Influent StreamID = "influent"

// EffluentStream returns the liquid effluent stream ID for a reactor.
func EffluentStream(reactor int) StreamID {
	return StreamID(fmt.Sprintf("effluent%d", reactor))
}

// BiogasStream returns the gas stream ID for a reactor.
func BiogasStream(reactor int) StreamID {
	return StreamID(fmt.Sprintf("biogas%d", reactor))
}

// parseStreamID splits a stream ID into its kind and reactor index
// (0 for the influent).
func parseStreamID(id StreamID) (kind string, reactor int, err error) {
	s := string(id)
	switch {
	case s == string(Influent):
		return "influent", 0, nil
	case strings.HasPrefix(s, "effluent"):
		kind = "effluent"
		s = strings.TrimPrefix(s, "effluent")
	case strings.HasPrefix(s, "biogas"):
		kind = "biogas"
		s = strings.TrimPrefix(s, "biogas")
	default:
		return "", 0, InvalidParameterError{Name: string(id), Reason: "unknown stream identifier"}
	}
	reactor, err = strconv.Atoi(s)
	if err != nil || reactor < 1 || reactor > NumReactors {
		return "", 0, InvalidParameterError{Name: string(id), Reason: "stream reactor index must be 1-3"}
	}
	return kind, reactor, nil
}

// StreamProperties is a read-only, unit-tagged view of one stream. It is
// always recomputable from the feedstock (influent) or a simulation result
// (effluent/biogas) and is never a source of truth.
type StreamProperties struct {
	Stream StreamID
	Props  map[string]*unit.Unit
}

// Value returns the scalar value of one property.
func (sp *StreamProperties) Value(name string) (float64, error) {
	u, ok := sp.Props[name]
	if !ok {
		return 0, InvalidParameterError{Name: name, Reason: "no such stream property"}
	}
	return u.Value(), nil
}

// Names returns the property names present in the stream view.
func (sp *StreamProperties) Names() []string {
	names := make([]string, 0, len(sp.Props))
	for name := range sp.Props {
		names = append(names, name)
	}
	return names
}

// extractLiquid maps a liquid state vector [kg/m³ on registry basis] to the
// named property set. Every vector component must have a registry entry;
// there are no silent drops.
func extractLiquid(id StreamID, v []float64, flow float64, ks EquilibriumConstants) (*StreamProperties, error) {
	if len(v) != len(componentRegistry) {
		return nil, UnmappedComponentError{
			ID: fmt.Sprintf("state vector length %d (registry has %d)", len(v), len(componentRegistry)),
		}
	}

	props := make(map[string]*unit.Unit, len(componentRegistry)+16)
	var totalCOD, solubleCOD, particulateCOD float64
	var tss, vss, totalN, totalVFA float64
	for i, c := range componentRegistry {
		if c.Name == "" {
			return nil, UnmappedComponentError{ID: c.ID}
		}
		dims := concDims
		if c.ID == "S_cat" || c.ID == "S_an" {
			dims = eqDims // ion pools are tracked in keq/m³
		}
		props[c.Name] = unit.New(v[i], dims)

		if c.CODBearing {
			totalCOD += v[i]
			if c.Particulate {
				particulateCOD += v[i]
			} else {
				solubleCOD += v[i]
			}
		}
		if c.Particulate {
			tss += v[i]
			if c.Volatile {
				vss += v[i]
			}
		}
		totalN += v[i] * c.NContent
	}
	totalVFA = v[componentIndex["S_ac"]] + v[componentIndex["S_pro"]] +
		v[componentIndex["S_bu"]] + v[componentIndex["S_va"]]

	totals := ionTotalsFromVector(v)
	h, pH, sp, err := SolvePH(totals, ks)
	if err != nil {
		return nil, err
	}
	// Alkalinity titrated to the carbonic acid endpoint [eq/L].
	alk := sp.HCO3 + 2*sp.CO3 + sp.NH3 + sp.Acetate + sp.Propionate +
		sp.Butyrate + sp.Valerate + sp.OH - h
	if alk < 0 {
		alk = 0
	}

	props["flow"] = unit.New(flow, flowDims)
	props["pH"] = unit.New(pH, unit.Dimless)
	props["alkalinity"] = unit.New(alk*1000, eqDims) // meq/L
	props["free_ammonia_nitrogen"] = unit.New(sp.NH3*mwN, concDims)
	props["total_COD"] = unit.New(totalCOD, concDims)
	props["soluble_COD"] = unit.New(solubleCOD, concDims)
	props["particulate_COD"] = unit.New(particulateCOD, concDims)
	props["total_nitrogen"] = unit.New(totalN, concDims)
	props["ammonia_nitrogen"] = unit.New(v[componentIndex["S_IN"]], concDims)
	props["total_suspended_solids"] = unit.New(tss, concDims)
	props["volatile_suspended_solids"] = unit.New(vss, concDims)
	props["inorganic_suspended_solids"] = unit.New(tss-vss, concDims)
	props["total_VFA"] = unit.New(totalVFA, concDims)

	return &StreamProperties{Stream: id, Props: props}, nil
}

// ExtractInfluent derives the influent stream view from the feedstock and
// the configured flow rate [m³/d]. The pH and alkalinity properties are
// speciated with the given dissociation constants.
func ExtractInfluent(f *FeedstockState, flow float64, ks EquilibriumConstants) (*StreamProperties, error) {
	return extractLiquid(Influent, f.Vector(), flow, ks)
}

// ExtractEffluent derives the liquid effluent view from a simulation
// result's terminal state.
func ExtractEffluent(res *SimulationResult, ks EquilibriumConstants) (*StreamProperties, error) {
	return extractLiquid(EffluentStream(res.Reactor), res.Effluent, res.Flow, ks)
}

// ExtractBiogas derives the gas stream view from a simulation result. Gas
// flows are fixed ratio combinations of the dissolved gas precursors in the
// terminal state: CH4 and H2 from their COD equivalents, CO2 from the
// inorganic carbon pool.
func ExtractBiogas(res *SimulationResult) (*StreamProperties, error) {
	v := res.Effluent
	if len(v) != len(componentRegistry) {
		return nil, UnmappedComponentError{
			ID: fmt.Sprintf("state vector length %d (registry has %d)", len(v), len(componentRegistry)),
		}
	}

	// Mass flows [kg/d].
	massCH4 := v[componentIndex["S_ch4"]] * res.Flow / codPerKgCH4
	massCO2 := v[componentIndex["S_IC"]] * res.Flow * (mwCO2 / mwC)
	massH2 := v[componentIndex["S_h2"]] * res.Flow / codPerKgH2

	// Standard volumetric flows [Nm³/d].
	ch4Flow := massCH4 / densityCH4
	co2Flow := massCO2 / densityCO2
	h2Flow := massH2 / densityH2
	total := ch4Flow + co2Flow + h2Flow

	var ch4Frac, co2Frac, h2PPMV float64
	if total > 0 {
		ch4Frac = ch4Flow / total
		co2Frac = co2Flow / total
		h2PPMV = h2Flow / total * 1e6
	}

	props := map[string]*unit.Unit{
		"methane_flow":     unit.New(ch4Flow, flowDims),
		"co2_flow":         unit.New(co2Flow, flowDims),
		"hydrogen_flow":    unit.New(h2Flow, flowDims),
		"total_flow":       unit.New(total, flowDims),
		"methane_fraction": unit.New(ch4Frac, unit.Dimless),
		"co2_fraction":     unit.New(co2Frac, unit.Dimless),
		"hydrogen_ppmv":    unit.New(h2PPMV, unit.Dimless),
	}
	return &StreamProperties{Stream: BiogasStream(res.Reactor), Props: props}, nil
}
