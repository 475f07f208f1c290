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
	"math"
	"testing"
)

func TestComputeYields(t *testing.T) {
	in, err := NewFeedstockFromMap(map[string]float64{"S_su": 2.0})
	if err != nil {
		t.Fatal(err)
	}
	// 1.0 kg COD/m³ of sugar consumed, 0.05 kg/m³ of volatile biomass
	// produced.
	out := in.Clone()
	if err := out.Set("S_su", 1.0); err != nil {
		t.Fatal(err)
	}
	if err := out.Set("X_su", 0.01+0.05); err != nil {
		t.Fatal(err)
	}

	y, err := ComputeYields(in.Vector(), out.Vector())
	if err != nil {
		t.Fatal(err)
	}
	removed := 1.0 - 0.05
	if want := 0.05 / removed; math.Abs(y.VSSYield-want) > 1e-12 {
		t.Errorf("VSS yield = %g, want %g", y.VSSYield, want)
	}
	if math.Abs(y.TSSYield-y.VSSYield) > 1e-12 {
		t.Errorf("TSS yield = %g, want %g (only volatile solids changed)", y.TSSYield, y.VSSYield)
	}
	props, err := ExtractInfluent(in, 1, DefaultEquilibriumConstants())
	if err != nil {
		t.Fatal(err)
	}
	codIn, err := props.Value("total_COD")
	if err != nil {
		t.Fatal(err)
	}
	if want := removed / codIn; math.Abs(y.CODRemoval-want) > 1e-12 {
		t.Errorf("COD removal = %g, want %g", y.CODRemoval, want)
	}
}

func TestComputeYieldsNoRemoval(t *testing.T) {
	v := NewFeedstockState().Vector()
	y, err := ComputeYields(v, v)
	if err != nil {
		t.Fatal(err)
	}
	if y.CODRemoval != 0 || y.VSSYield != 0 || y.TSSYield != 0 {
		t.Errorf("yields = %+v, want all zero for identical vectors", y)
	}
}

func TestComputeYieldsRejectsBadVectors(t *testing.T) {
	v := NewFeedstockState().Vector()
	if _, err := ComputeYields(v[:5], v); err == nil {
		t.Error("short influent vector did not fail")
	}
	if _, err := ComputeYields(v, v[:5]); err == nil {
		t.Error("short effluent vector did not fail")
	}
	if _, err := ComputeYields(make([]float64, len(v)), v); err == nil {
		t.Error("zero-COD influent did not fail")
	}
}
