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

package adsimutil

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/processmodel/adsim"
	"github.com/processmodel/adsim/cstr"
)

// Scenario is a TOML description of one simulation setup: feedstock
// concentration overrides, kinetic parameter overrides, shared flow
// settings, and up to three reactor configurations.
type Scenario struct {
	// Feedstock maps component IDs to influent concentrations [kg/m³ on
	// the registry basis]. Unset components keep their defaults.
	Feedstock map[string]float64 `toml:"feedstock"`

	// DeclaredPH is the pH the feedstock is delivered at.
	DeclaredPH float64 `toml:"declared_ph"`

	// Kinetics maps kinetic parameter names to overrides.
	Kinetics map[string]float64 `toml:"kinetics"`

	Flow struct {
		FlowRate float64 `toml:"flow_rate"` // m³/d
		Duration float64 `toml:"duration"`  // d
		Step     float64 `toml:"step"`      // d
	} `toml:"flow"`

	Reactors []struct {
		Temperature float64 `toml:"temperature"` // K
		HRT         float64 `toml:"hrt"`         // d
		Method      string  `toml:"method"`
	} `toml:"reactor"`
}

// defaultScenario is used when no scenario file is given: the default
// feedstock into a single mesophilic reactor.
func defaultScenario() *Scenario {
	sc := &Scenario{DeclaredPH: 7.0}
	flow := adsim.DefaultFlowConfig()
	sc.Flow.FlowRate = flow.FlowRate
	sc.Flow.Duration = flow.Duration
	sc.Flow.Step = flow.Step
	sc.Reactors = append(sc.Reactors, struct {
		Temperature float64 `toml:"temperature"`
		HRT         float64 `toml:"hrt"`
		Method      string  `toml:"method"`
	}{Temperature: 308.15, HRT: 20, Method: "BDF"})
	return sc
}

// loadScenario reads a scenario file, or returns the default scenario for
// an empty path.
func loadScenario(path string) (*Scenario, error) {
	if path == "" {
		return defaultScenario(), nil
	}
	sc := defaultScenario()
	sc.Reactors = nil
	meta, err := toml.DecodeFile(path, sc)
	if err != nil {
		return nil, fmt.Errorf("adsim: reading scenario %s: %v", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("adsim: scenario %s has unrecognized keys: %v", path, undec)
	}
	if len(sc.Reactors) == 0 {
		sc.Reactors = defaultScenario().Reactors
	}
	if len(sc.Reactors) > adsim.NumReactors {
		return nil, fmt.Errorf("adsim: scenario configures %d reactors, at most %d supported",
			len(sc.Reactors), adsim.NumReactors)
	}
	return sc, nil
}

// parameters builds the feedstock and kinetic parameter set the scenario
// describes.
func (sc *Scenario) parameters() (*adsim.FeedstockState, *adsim.KineticParameterSet, error) {
	f, err := adsim.NewFeedstockFromMap(sc.Feedstock)
	if err != nil {
		return nil, nil, err
	}
	if sc.DeclaredPH != 0 {
		f.DeclaredPH = sc.DeclaredPH
	}
	k, err := adsim.NewKineticsFromMap(sc.Kinetics)
	if err != nil {
		return nil, nil, err
	}
	return f, k, nil
}

// buildState assembles a ready-to-run simulation state from a scenario
// file path (empty for the default scenario).
func buildState(path string) (*adsim.State, error) {
	sc, err := loadScenario(path)
	if err != nil {
		return nil, err
	}
	f, k, err := sc.parameters()
	if err != nil {
		return nil, err
	}

	reactor := cstr.New(sc.Flow.FlowRate)
	reactor.Influent = f.Vector()
	state := adsim.NewState(reactor)
	if err := state.SetFeedstock(f); err != nil {
		return nil, err
	}
	if err := state.SetKinetics(k); err != nil {
		return nil, err
	}
	if err := state.SetFlow(adsim.FlowConfig{
		FlowRate: sc.Flow.FlowRate,
		Duration: sc.Flow.Duration,
		Step:     sc.Flow.Step,
	}); err != nil {
		return nil, err
	}
	for i, rc := range sc.Reactors {
		err := state.ConfigureReactor(i+1, adsim.ReactorConfig{
			Temperature: rc.Temperature,
			HRT:         rc.HRT,
			Method:      rc.Method,
		})
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}
