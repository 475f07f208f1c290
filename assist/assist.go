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

// Package assist asks a language-model service for feedstock and kinetic
// parameter suggestions and turns its prose answers into validated
// parameter updates. The model is only ever consulted for suggestions; all
// values pass through the same validation as any other input before they
// touch the simulation state.
package assist

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/processmodel/adsim"
)

// Recommendation is a set of suggested parameter changes extracted from a
// model answer, split by which part of the simulation they address.
type Recommendation struct {
	Feedstock map[string]float64
	Kinetics  map[string]float64

	// Units and Rationale keep the model's stated unit and justification
	// per parameter, for display only.
	Units     map[string]string
	Rationale map[string]string
}

// Apply writes the recommended values into the given feedstock and kinetic
// parameter set. Validation failures abort with the offending parameter;
// earlier values in the same call may already have been applied, so apply
// to copies when that matters.
func (r *Recommendation) Apply(f *adsim.FeedstockState, k *adsim.KineticParameterSet) error {
	for name, v := range r.Feedstock {
		if err := f.Set(name, v); err != nil {
			return err
		}
	}
	for name, v := range r.Kinetics {
		if err := k.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

var (
	componentNames = func() map[string]bool {
		m := make(map[string]bool)
		for _, id := range adsim.ComponentIDs() {
			m[id] = true
		}
		return m
	}()
	kineticNames = func() map[string]bool {
		m := make(map[string]bool)
		for _, name := range adsim.KineticParameterNames() {
			m[name] = true
		}
		return m
	}()

	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// ParseRecommendation extracts the parameter object from a model answer.
// The answer may wrap the JSON in a fenced code block or surround it with
// prose; the object maps parameter names to [value, unit, rationale]
// triples, where unit and rationale are optional.
func ParseRecommendation(text string) (*Recommendation, error) {
	raw := text
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			raw = text[i : j+1]
		}
	}
	var entries map[string][]interface{}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("assist: answer contains no parameter object: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("assist: answer contains an empty parameter object")
	}

	rec := &Recommendation{
		Feedstock: make(map[string]float64),
		Kinetics:  make(map[string]float64),
		Units:     make(map[string]string),
		Rationale: make(map[string]string),
	}
	for name, entry := range entries {
		if len(entry) == 0 {
			return nil, fmt.Errorf("assist: parameter %s has no value", name)
		}
		v, ok := entry[0].(float64)
		if !ok {
			return nil, fmt.Errorf("assist: parameter %s has non-numeric value %v", name, entry[0])
		}
		switch {
		case componentNames[name]:
			rec.Feedstock[name] = v
		case kineticNames[name]:
			rec.Kinetics[name] = v
		default:
			return nil, adsim.InvalidParameterError{Name: name,
				Reason: "not a recognized component or kinetic parameter"}
		}
		if len(entry) > 1 {
			if u, ok := entry[1].(string); ok {
				rec.Units[name] = u
			}
		}
		if len(entry) > 2 {
			if why, ok := entry[2].(string); ok {
				rec.Rationale[name] = why
			}
		}
	}
	return rec, nil
}
