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

package cstr

import (
	"context"
	"math"
	"testing"

	"github.com/processmodel/adsim"
)

// sterile returns a feedstock with the given soluble inert level and no
// particulates or biomass, so dilution is the only active process.
func sterile(t *testing.T, inerts float64) []float64 {
	t.Helper()
	conc := map[string]float64{"S_I": inerts}
	for _, id := range adsim.ComponentIDs() {
		if id[0] == 'X' {
			conc[id] = 0
		}
	}
	f, err := adsim.NewFeedstockFromMap(conc)
	if err != nil {
		t.Fatal(err)
	}
	return f.Vector()
}

// With no biomass present every component follows first-order washout
// toward the influent composition, which has a closed-form solution.
func TestTracerWashout(t *testing.T) {
	initial := sterile(t, 1.0)
	influent := sterile(t, 0.2)

	r := &Reactor{Flow: 100, Influent: influent}
	traj, err := r.Integrate(context.Background(), initial, nil,
		1000, 308.15, 10, 0.1, adsim.RK45)
	if err != nil {
		t.Fatal(err)
	}
	if traj.Len() != 101 {
		t.Fatalf("trajectory has %d points, want 101", traj.Len())
	}

	d := 100.0 / 1000.0 // dilution rate [1/d]
	iSI := index["S_I"]
	for _, i := range []int{10, 50, 100} {
		ti := traj.Times[i]
		want := 0.2 + (1.0-0.2)*math.Exp(-d*ti)
		got := traj.At(i)[iSI]
		if math.Abs(got-want) > 1e-8 {
			t.Errorf("S_I at t=%g d: got %g, want %g", ti, got, want)
		}
	}
}

func TestBatchDigestion(t *testing.T) {
	f := adsim.NewFeedstockState()
	if err := f.Set("S_su", 2.0); err != nil {
		t.Fatal(err)
	}
	initial := f.Vector()

	r := New(0) // batch
	traj, err := r.Integrate(context.Background(), initial, nil,
		3400, 308.15, 10, 0.1, adsim.BDF)
	if err != nil {
		t.Fatal(err)
	}
	final := traj.Final()
	for i, id := range adsim.ComponentIDs() {
		if v := final[i]; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s = %g after batch run", id, v)
		}
	}
	if final[index["S_su"]] >= initial[index["S_su"]] {
		t.Errorf("sugar not consumed: %g -> %g",
			initial[index["S_su"]], final[index["S_su"]])
	}
	if final[index["S_ch4"]] <= initial[index["S_ch4"]] {
		t.Errorf("no methane produced: %g -> %g",
			initial[index["S_ch4"]], final[index["S_ch4"]])
	}
	if final[index["X_su"]] <= initial[index["X_su"]] {
		t.Errorf("sugar degraders did not grow: %g -> %g",
			initial[index["X_su"]], final[index["X_su"]])
	}
}

func TestIntegrateRejectsBadSetup(t *testing.T) {
	r := New(100)
	good := adsim.NewFeedstockState().Vector()
	if _, err := r.Integrate(context.Background(), good[:5], nil,
		1000, 308.15, 1, 0.1, adsim.RK45); err == nil {
		t.Error("short state vector did not fail")
	}
	if _, err := r.Integrate(context.Background(), good, nil,
		0, 308.15, 1, 0.1, adsim.RK45); err == nil {
		t.Error("zero volume did not fail")
	}
	r.Influent = good[:5]
	if _, err := r.Integrate(context.Background(), good, nil,
		1000, 308.15, 1, 0.1, adsim.RK45); err == nil {
		t.Error("mismatched influent width did not fail")
	}
}

func TestIntegrateHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(100)
	_, err := r.Integrate(ctx, adsim.NewFeedstockState().Vector(), nil,
		1000, 308.15, 10, 0.1, adsim.RK45)
	if err == nil {
		t.Fatal("canceled context did not abort the run")
	}
}
