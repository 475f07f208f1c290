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

// BiomassYields summarizes solids production relative to substrate
// consumption across one reactor.
type BiomassYields struct {
	VSSYield   float64 // kg VSS produced per kg COD removed
	TSSYield   float64 // kg TSS produced per kg COD removed
	CODRemoval float64 // fraction of influent COD removed
}

// ComputeYields compares influent and effluent state vectors. When no COD
// is removed (or the effluent carries more COD than the influent) the
// yields are zero and the removal fraction may be negative.
func ComputeYields(influent, effluent []float64) (*BiomassYields, error) {
	if len(influent) != len(componentRegistry) {
		return nil, UnmappedComponentError{ID: "influent vector"}
	}
	if len(effluent) != len(componentRegistry) {
		return nil, UnmappedComponentError{ID: "effluent vector"}
	}
	var codIn, codOut, vssIn, vssOut, tssIn, tssOut float64
	for i, c := range componentRegistry {
		if c.CODBearing {
			codIn += influent[i]
			codOut += effluent[i]
		}
		if c.Particulate {
			tssIn += influent[i]
			tssOut += effluent[i]
			if c.Volatile {
				vssIn += influent[i]
				vssOut += effluent[i]
			}
		}
	}
	if codIn <= 0 {
		return nil, InvalidInputError{Name: "influent COD", Value: codIn}
	}
	y := &BiomassYields{CODRemoval: 1 - codOut/codIn}
	if removed := codIn - codOut; removed > 0 {
		y.VSSYield = (vssOut - vssIn) / removed
		y.TSSYield = (tssOut - tssIn) / removed
		if y.VSSYield < 0 {
			y.VSSYield = 0
		}
		if y.TSSYield < 0 {
			y.TSSYield = 0
		}
	}
	return y, nil
}
