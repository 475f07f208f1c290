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

// Package adsim models anaerobic digestion state on the ADM1 component
// basis: feedstock and kinetic parameter handling, acid-base equilibrium
// and pH, microbial inhibition, stream property extraction, charge balance
// validation, and the simulation state machine for up to three reactors.
package adsim

// Version gives the version number.
const Version = "0.1.0"
