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
	"testing"
)

func TestComponentRegistry(t *testing.T) {
	ids := ComponentIDs()
	if len(ids) != 26 {
		t.Fatalf("registry has %d components, want 26", len(ids))
	}
	if ids[0] != "S_su" || ids[len(ids)-1] != "S_an" {
		t.Errorf("registry order starts %s and ends %s, want S_su .. S_an", ids[0], ids[len(ids)-1])
	}
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate component %s", id)
		}
		seen[id] = true
		c, err := ComponentByID(id)
		if err != nil {
			t.Fatal(err)
		}
		if c.Name == "" {
			t.Errorf("component %s has no descriptive name", id)
		}
		if c.Biomass && !c.Particulate {
			t.Errorf("biomass component %s not flagged particulate", id)
		}
	}
	if _, err := ComponentByID("S_xyz"); err == nil {
		t.Error("unknown component id did not fail")
	}
}

func TestFeedstockIngestionRejectsBadInput(t *testing.T) {
	var pe InvalidParameterError
	if _, err := NewFeedstockFromMap(map[string]float64{"S_sugar": 1}); !errors.As(err, &pe) {
		t.Errorf("unknown component: got %v, want InvalidParameterError", err)
	}
	if _, err := NewFeedstockFromMap(map[string]float64{"S_su": -1}); !errors.As(err, &pe) {
		t.Errorf("negative concentration: got %v, want InvalidParameterError", err)
	}
	f := NewFeedstockState()
	if err := f.Set("X_ch", -0.1); !errors.As(err, &pe) {
		t.Errorf("Set negative: got %v, want InvalidParameterError", err)
	}
	// A rejected set must leave the previous value in place.
	if c, _ := f.Concentration("X_ch"); c != 5.0 {
		t.Errorf("X_ch = %g after rejected set, want the default 5.0", c)
	}
}

func TestFeedstockCloneIsIndependent(t *testing.T) {
	f := NewFeedstockState()
	g := f.Clone()
	if err := g.Set("S_su", 3.0); err != nil {
		t.Fatal(err)
	}
	if c, _ := f.Concentration("S_su"); c != 0.01 {
		t.Errorf("clone mutation leaked: S_su = %g, want 0.01", c)
	}
}

func TestKineticParameterConstraints(t *testing.T) {
	k := NewKineticParameterSet()
	var pe InvalidParameterError
	if err := k.Set("Y_su", 1.5); !errors.As(err, &pe) {
		t.Errorf("yield above 1: got %v, want InvalidParameterError", err)
	}
	if err := k.Set("f_ac_su", -0.1); !errors.As(err, &pe) {
		t.Errorf("negative fraction: got %v, want InvalidParameterError", err)
	}
	if err := k.Set("k_su", -5); !errors.As(err, &pe) {
		t.Errorf("negative rate: got %v, want InvalidParameterError", err)
	}
	if err := k.Set("nonesuch", 1); !errors.As(err, &pe) {
		t.Errorf("unknown parameter: got %v, want InvalidParameterError", err)
	}
	if err := k.Set("Y_su", 0.08); err != nil {
		t.Errorf("valid yield rejected: %v", err)
	}
	if v, err := k.Value("Y_su"); err != nil || v != 0.08 {
		t.Errorf("Y_su = %g/%v, want 0.08", v, err)
	}
	if _, err := NewKineticsFromMap(map[string]float64{"q_dis": 0.8}); err != nil {
		t.Errorf("valid override rejected: %v", err)
	}
}
