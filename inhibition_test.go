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
	"errors"
	"math"
	"testing"
)

func TestPHInhibitionBand(t *testing.T) {
	// Exactly 1 at the band center, about half at the band edges, near
	// zero far outside.
	if f := phInhibition(6.5, 4, 9); math.Abs(f-1) > 1e-9 {
		t.Errorf("factor at band center = %g, want 1", f)
	}
	if f := phInhibition(9, 4, 9); f < 0.4 || f > 0.6 {
		t.Errorf("factor at band edge = %g, want ~0.5", f)
	}
	if f := phInhibition(2, 4, 9); f > 0.01 {
		t.Errorf("factor far outside band = %g, want ~0", f)
	}
	if f := phInhibition(11, 4, 9); f > 0.01 {
		t.Errorf("factor far outside band = %g, want ~0", f)
	}
}

func TestNonCompetitive(t *testing.T) {
	if f := nonCompetitive(1e-5, 1e-5); math.Abs(f-0.5) > 1e-12 {
		t.Errorf("factor at S=KI = %g, want 0.5", f)
	}
	if f := nonCompetitive(1e3, 0); f != 1 {
		t.Errorf("factor with zero KI = %g, want 1 (group unaffected)", f)
	}
	if f := nonCompetitive(0, 1e-5); f != 1 {
		t.Errorf("factor at zero stressor = %g, want 1", f)
	}
}

func TestComputeInhibition(t *testing.T) {
	// Free ammonia at the acetoclastic KI and hydrogen at the acetogen KI:
	// each group reads 0.5 on its own stressor.
	factors, err := ComputeInhibition(7.0, 1.8e-3, 1e-5, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(factors) != len(MicrobialGroups()) {
		t.Fatalf("got %d groups, want %d", len(factors), len(MicrobialGroups()))
	}
	for g, f := range factors {
		for name, v := range map[string]float64{
			"pH": f.PH, "free ammonia": f.FreeAmmonia,
			"hydrogen": f.Hydrogen, "VFA": f.VFA, "composite": f.Composite,
		} {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Errorf("%v %s factor = %g, want within [0,1]", g, name, v)
			}
		}
		want := f.PH * f.FreeAmmonia * f.Hydrogen * f.VFA
		if math.Abs(f.Composite-want) > 1e-12 {
			t.Errorf("%v composite = %g, want product %g", g, f.Composite, want)
		}
	}
	if f := factors[AcetoclasticMethanogens].FreeAmmonia; math.Abs(f-0.5) > 1e-9 {
		t.Errorf("acetoclastic ammonia factor = %g, want 0.5", f)
	}
	if f := factors[Acetogens].Hydrogen; math.Abs(f-0.5) > 1e-9 {
		t.Errorf("acetogen hydrogen factor = %g, want 0.5", f)
	}
	// Acidogens carry no ammonia, hydrogen or VFA constants.
	if f := factors[Acidogens]; f.FreeAmmonia != 1 || f.Hydrogen != 1 || f.VFA != 1 {
		t.Errorf("acidogen stressor factors = %+v, want all 1", f)
	}
}

func TestComputeInhibitionRejectsBadInput(t *testing.T) {
	var ie InvalidInputError
	if _, err := ComputeInhibition(7, -1e-3, 0, 0, nil); !errors.As(err, &ie) {
		t.Errorf("negative ammonia: got %v, want InvalidInputError", err)
	}
	if _, err := ComputeInhibition(math.NaN(), 0, 0, 0, nil); !errors.As(err, &ie) {
		t.Errorf("NaN pH: got %v, want InvalidInputError", err)
	}
	if _, err := ComputeInhibition(7, 0, 0, -0.1, nil); !errors.As(err, &ie) {
		t.Errorf("negative VFA: got %v, want InvalidInputError", err)
	}
}

func TestDominant(t *testing.T) {
	// Heavy free ammonia hits the acetoclastic methanogens hardest.
	factors, err := ComputeInhibition(7.0, 0.05, 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	g, f := factors.Dominant()
	if g != AcetoclasticMethanogens {
		t.Errorf("dominant group = %v, want %v", g, AcetoclasticMethanogens)
	}
	if want := factors[AcetoclasticMethanogens].Composite; f != want {
		t.Errorf("dominant factor = %g, want %g", f, want)
	}
}
