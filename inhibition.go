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
	"math"
)

// MicrobialGroup identifies one of the trophic groups tracked by the
// inhibition diagnostics.
type MicrobialGroup int

// The microbial groups, in pathway order.
const (
	Acidogens MicrobialGroup = iota
	Acetogens
	AcetoclasticMethanogens
	HydrogenotrophicMethanogens
)

func (g MicrobialGroup) String() string {
	switch g {
	case Acidogens:
		return "acidogens"
	case Acetogens:
		return "acetogens"
	case AcetoclasticMethanogens:
		return "acetoclastic_methanogens"
	case HydrogenotrophicMethanogens:
		return "hydrogenotrophic_methanogens"
	default:
		return fmt.Sprintf("MicrobialGroup(%d)", int(g))
	}
}

// MicrobialGroups returns all groups in pathway order.
func MicrobialGroups() []MicrobialGroup {
	return []MicrobialGroup{Acidogens, Acetogens,
		AcetoclasticMethanogens, HydrogenotrophicMethanogens}
}

// GroupConstants parameterizes the inhibition response of one microbial
// group. A zero inhibition constant means the group does not respond to
// that stressor and its factor is reported as 1.
type GroupConstants struct {
	PHLower float64 // pH below which growth is strongly inhibited
	PHUpper float64 // pH above which growth is strongly inhibited
	KINH3   float64 // free ammonia inhibition constant [mol/L]
	KIH2    float64 // dissolved hydrogen inhibition constant [kg COD/m³]
	KIVFA   float64 // total VFA inhibition constant [kg COD/m³]
}

// DefaultGroupConstants returns the standard inhibition parameterization.
// Methanogens have narrower pH bounds than acidogens, and acetoclastic
// methanogens carry the most sensitive ammonia constant.
func DefaultGroupConstants() map[MicrobialGroup]GroupConstants {
	return map[MicrobialGroup]GroupConstants{
		Acidogens:                   {PHLower: 4.0, PHUpper: 9.0},
		Acetogens:                   {PHLower: 5.0, PHUpper: 8.5, KIH2: 1e-5},
		AcetoclasticMethanogens:     {PHLower: 6.0, PHUpper: 8.0, KINH3: 1.8e-3, KIVFA: 5.0},
		HydrogenotrophicMethanogens: {PHLower: 5.5, PHUpper: 8.5, KINH3: 1.1e-2, KIVFA: 8.0},
	}
}

// StressorFactors holds the dimensionless inhibition factors for one
// microbial group. Each factor is in [0,1], where 1 means no inhibition.
// Composite is the product of the four factors (non-competitive
// multiplicative inhibition).
type StressorFactors struct {
	PH          float64
	FreeAmmonia float64
	Hydrogen    float64
	VFA         float64
	Composite   float64
}

// InhibitionFactors maps each microbial group to its stressor factors.
// It is derived on demand from a simulation result and never stored
// independently.
type InhibitionFactors map[MicrobialGroup]StressorFactors

// phInhibition is a smooth symmetric band function of pH: 1 at the center
// of [lower, upper], decreasing toward 0 outside the band on both sides.
func phInhibition(pH, lower, upper float64) float64 {
	num := 1 + 2*math.Pow(10, 0.5*(lower-upper))
	den := 1 + math.Pow(10, pH-upper) + math.Pow(10, lower-pH)
	f := num / den
	if f > 1 {
		f = 1
	}
	return f
}

// nonCompetitive is the standard non-competitive inhibition form 1/(1+S/KI).
func nonCompetitive(s, ki float64) float64 {
	if ki == 0 {
		return 1
	}
	return 1 / (1 + s/ki)
}

// ComputeInhibition maps the ambient stressor levels to inhibition factors
// per microbial group. freeAmmonia is in mol/L; hydrogen and totalVFA are in
// kg COD/m³; pH is on the 0-14 scale. Negative concentrations are rejected
// with InvalidInputError rather than clamped, to surface upstream bugs.
func ComputeInhibition(pH, freeAmmonia, hydrogen, totalVFA float64,
	constants map[MicrobialGroup]GroupConstants) (InhibitionFactors, error) {

	for _, c := range []struct {
		name string
		v    float64
	}{
		{"pH", pH},
		{"free ammonia", freeAmmonia},
		{"dissolved hydrogen", hydrogen},
		{"total VFA", totalVFA},
	} {
		if c.v < 0 || math.IsNaN(c.v) {
			return nil, InvalidInputError{Name: c.name, Value: c.v}
		}
	}
	if constants == nil {
		constants = DefaultGroupConstants()
	}

	out := make(InhibitionFactors, len(constants))
	for _, g := range MicrobialGroups() {
		gc, ok := constants[g]
		if !ok {
			continue
		}
		f := StressorFactors{
			PH:          phInhibition(pH, gc.PHLower, gc.PHUpper),
			FreeAmmonia: nonCompetitive(freeAmmonia, gc.KINH3),
			Hydrogen:    nonCompetitive(hydrogen, gc.KIH2),
			VFA:         nonCompetitive(totalVFA, gc.KIVFA),
		}
		f.Composite = f.PH * f.FreeAmmonia * f.Hydrogen * f.VFA
		out[g] = f
	}
	return out, nil
}

// Dominant returns the group with the lowest composite factor and that
// factor. It identifies the pathway most at risk.
func (f InhibitionFactors) Dominant() (MicrobialGroup, float64) {
	worst := math.Inf(1)
	var worstGroup MicrobialGroup
	for _, g := range MicrobialGroups() {
		sf, ok := f[g]
		if !ok {
			continue
		}
		if sf.Composite < worst {
			worst = sf.Composite
			worstGroup = g
		}
	}
	return worstGroup, worst
}
