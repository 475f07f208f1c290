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
	"context"
	"fmt"
	"sync"
)

// NumReactors is the number of independently configured reactor slots.
const NumReactors = 3

// SlotStatus is the lifecycle state of one reactor slot.
type SlotStatus int

// Slot lifecycle states. Staleness is tracked as a separate bit orthogonal
// to the status: SlotComplete with the stale bit set means a result exists
// but one of its inputs changed after the run.
const (
	SlotUnconfigured SlotStatus = iota
	SlotConfigured
	SlotRunning
	SlotComplete
)

func (s SlotStatus) String() string {
	switch s {
	case SlotUnconfigured:
		return "unconfigured"
	case SlotConfigured:
		return "configured"
	case SlotRunning:
		return "running"
	case SlotComplete:
		return "complete"
	default:
		return fmt.Sprintf("SlotStatus(%d)", int(s))
	}
}

// FlowConfig holds the flow and integration horizon settings shared by all
// reactor slots.
type FlowConfig struct {
	FlowRate float64 // influent flow [m³/d]
	Duration float64 // simulation time [d]
	Step     float64 // integration output step [d]
}

// DefaultFlowConfig returns the documented default flow settings.
func DefaultFlowConfig() FlowConfig {
	return FlowConfig{FlowRate: 170, Duration: 30, Step: 0.1}
}

// Validate checks the flow settings.
func (c FlowConfig) Validate() error {
	if c.FlowRate <= 0 {
		return InvalidParameterError{Name: "flow_rate", Value: c.FlowRate, Reason: "must be positive"}
	}
	if c.Duration <= 0 {
		return InvalidParameterError{Name: "simulation_time", Value: c.Duration, Reason: "must be positive"}
	}
	if c.Step <= 0 || c.Step > c.Duration {
		return InvalidParameterError{Name: "time_step", Value: c.Step,
			Reason: "must be positive and no longer than the simulation time"}
	}
	return nil
}

// ReactorConfig holds the per-reactor settings. The reactor liquid volume
// is derived from the shared flow rate and the hydraulic retention time.
type ReactorConfig struct {
	Temperature float64 // K
	HRT         float64 // hydraulic retention time [d]
	Method      string  // integration method name, validated at run time
}

// Validate checks the reactor settings. The method name is deliberately not
// checked here; an unrecognized name fails the run with
// UnsupportedMethodError before the integrator is invoked.
func (c ReactorConfig) Validate() error {
	if c.Temperature < 273.15 || c.Temperature > 373.15 {
		return InvalidParameterError{Name: "temperature", Value: c.Temperature,
			Reason: "must be between 273.15 K and 373.15 K"}
	}
	if c.HRT <= 0 {
		return InvalidParameterError{Name: "hrt", Value: c.HRT, Reason: "must be positive"}
	}
	return nil
}

// SimulationResult is the outcome of one successful reactor run. It is
// owned exclusively by the simulation state for its reactor slot.
type SimulationResult struct {
	Reactor     int
	Method      Method
	Temperature float64 // K
	Flow        float64 // m³/d
	Volume      float64 // m³
	Trajectory  *Trajectory
	Effluent    []float64 // terminal state vector [kg/m³]
}

type slot struct {
	mu        sync.Mutex
	status    SlotStatus
	stale     bool
	config    ReactorConfig
	hasConfig bool
	result    *SimulationResult

	// pendingStale records a shared-input change that arrived while the
	// slot was running: the run's snapshot predates the change, so the
	// result is stale the moment it lands.
	pendingStale bool
}

// markStale flags an existing result as outdated after an input change.
func (sl *slot) markStale() {
	sl.mu.Lock()
	switch sl.status {
	case SlotComplete:
		sl.stale = true
	case SlotRunning:
		sl.pendingStale = true
	}
	sl.mu.Unlock()
}

// State owns the configuration and cached results of all reactor slots.
// It is the only component that mutates shared simulation state; all other
// components receive read access and return freshly computed values.
type State struct {
	mu        sync.Mutex
	feedstock *FeedstockState
	kinetics  *KineticParameterSet
	flow      FlowConfig

	integrator  Integrator
	equilibrium EquilibriumConstants
	groups      map[MicrobialGroup]GroupConstants
	tolerance   BalanceTolerance

	slots [NumReactors]slot
}

// NewState returns a simulation state with default feedstock, kinetics and
// flow settings and all reactor slots unconfigured.
func NewState(integrator Integrator) *State {
	return &State{
		feedstock:   NewFeedstockState(),
		kinetics:    NewKineticParameterSet(),
		flow:        DefaultFlowConfig(),
		integrator:  integrator,
		equilibrium: DefaultEquilibriumConstants(),
		groups:      DefaultGroupConstants(),
		tolerance:   DefaultBalanceTolerance(),
	}
}

// SetFeedstock replaces the shared feedstock. Any completed slot becomes
// stale.
func (s *State) SetFeedstock(f *FeedstockState) error {
	if f == nil {
		return InvalidParameterError{Name: "feedstock", Reason: "must not be nil"}
	}
	s.mu.Lock()
	s.feedstock = f.Clone()
	s.mu.Unlock()
	s.markAllStale()
	return nil
}

// SetKinetics replaces the shared kinetic parameter set. Any completed slot
// becomes stale.
func (s *State) SetKinetics(k *KineticParameterSet) error {
	if k == nil {
		return InvalidParameterError{Name: "kinetics", Reason: "must not be nil"}
	}
	s.mu.Lock()
	s.kinetics = k.Clone()
	s.mu.Unlock()
	s.markAllStale()
	return nil
}

// SetFlow replaces the shared flow settings. Any completed slot becomes
// stale.
func (s *State) SetFlow(c FlowConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.flow = c
	s.mu.Unlock()
	s.markAllStale()
	return nil
}

// SetBalanceTolerance replaces the charge balance acceptance thresholds.
func (s *State) SetBalanceTolerance(tol BalanceTolerance) {
	s.mu.Lock()
	s.tolerance = tol
	s.mu.Unlock()
}

// Feedstock returns a copy of the shared feedstock.
func (s *State) Feedstock() *FeedstockState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedstock.Clone()
}

// Kinetics returns a copy of the shared kinetic parameter set.
func (s *State) Kinetics() *KineticParameterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kinetics.Clone()
}

// Flow returns the shared flow settings.
func (s *State) Flow() FlowConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow
}

func (s *State) markAllStale() {
	for i := range s.slots {
		s.slots[i].markStale()
	}
}

func (s *State) slotFor(reactor int) (*slot, error) {
	if reactor < 1 || reactor > NumReactors {
		return nil, InvalidParameterError{Name: "reactor_index", Value: float64(reactor),
			Reason: fmt.Sprintf("must be between 1 and %d", NumReactors)}
	}
	return &s.slots[reactor-1], nil
}

// ConfigureReactor sets the per-reactor settings for one slot, moving it
// from unconfigured to configured, or marking an existing result stale.
func (s *State) ConfigureReactor(reactor int, c ReactorConfig) error {
	sl, err := s.slotFor(reactor)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.status == SlotRunning {
		return fmt.Errorf("adsim: reactor %d is running; cannot reconfigure", reactor)
	}
	sl.config = c
	sl.hasConfig = true
	if sl.status == SlotComplete {
		sl.stale = true
	} else {
		sl.status = SlotConfigured
	}
	return nil
}

// Status returns the lifecycle state and stale bit of one slot.
func (s *State) Status(reactor int) (SlotStatus, bool, error) {
	sl, err := s.slotFor(reactor)
	if err != nil {
		return 0, false, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.status, sl.stale, nil
}

// Run executes the simulation for one reactor slot. The shared feedstock,
// kinetics and flow settings are copied into the run at start, so later
// mutations cannot affect a run in flight. On success a fresh result is
// stored and the stale bit cleared; on failure the slot keeps whatever
// result it had and the error is returned.
func (s *State) Run(ctx context.Context, reactor int) error {
	sl, err := s.slotFor(reactor)
	if err != nil {
		return err
	}

	// Snapshot the shared inputs.
	s.mu.Lock()
	feed := s.feedstock.Clone()
	kin := s.kinetics.Clone()
	flow := s.flow
	integrator := s.integrator
	s.mu.Unlock()

	if err := flow.Validate(); err != nil {
		return err
	}

	sl.mu.Lock()
	if !sl.hasConfig {
		sl.mu.Unlock()
		return fmt.Errorf("adsim: reactor %d is not configured", reactor)
	}
	if sl.status == SlotRunning {
		sl.mu.Unlock()
		return fmt.Errorf("adsim: reactor %d is already running", reactor)
	}
	cfg := sl.config

	// Resolve the method before any integration attempt.
	method, err := ParseMethod(cfg.Method)
	if err != nil {
		sl.mu.Unlock()
		return err
	}
	if integrator == nil {
		sl.mu.Unlock()
		return fmt.Errorf("adsim: no integrator attached")
	}

	prev := sl.status
	sl.status = SlotRunning
	sl.mu.Unlock()

	volume := flow.FlowRate * cfg.HRT
	traj, err := integrator.Integrate(ctx, feed.Vector(), kin, volume,
		cfg.Temperature, flow.Duration, flow.Step, method)
	if err == nil && (traj == nil || traj.Len() == 0) {
		err = fmt.Errorf("integrator returned an empty trajectory")
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if err != nil {
		// No partial result: the slot keeps its previous result (if
		// any) and its previous status. A shared-input change that
		// arrived mid-run still outdates that previous result.
		sl.status = prev
		sl.stale = sl.stale || sl.pendingStale
		sl.pendingStale = false
		return IntegrationError{Reactor: reactor, Method: method, Err: err}
	}
	sl.result = &SimulationResult{
		Reactor:     reactor,
		Method:      method,
		Temperature: cfg.Temperature,
		Flow:        flow.FlowRate,
		Volume:      volume,
		Trajectory:  traj,
		Effluent:    traj.Final(),
	}
	sl.status = SlotComplete
	// The run was computed from the snapshot taken at start; inputs that
	// changed in flight make the fresh result immediately stale.
	sl.stale = sl.pendingStale
	sl.pendingStale = false
	return nil
}

// Result returns the cached simulation result for one slot. A missing
// result fails with NoResultError; a stale one with StaleResultError unless
// allowStale is set.
func (s *State) Result(reactor int, allowStale bool) (*SimulationResult, error) {
	sl, err := s.slotFor(reactor)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.result == nil || sl.status != SlotComplete {
		return nil, NoResultError{Reactor: reactor}
	}
	if sl.stale && !allowStale {
		return nil, StaleResultError{Reactor: reactor}
	}
	return sl.result, nil
}

// StreamProperties derives the unit-tagged property view of one stream.
// The influent view comes from the current feedstock; effluent and biogas
// views come from the corresponding reactor's cached result.
func (s *State) StreamProperties(id StreamID, allowStale bool) (*StreamProperties, error) {
	kind, reactor, err := parseStreamID(id)
	if err != nil {
		return nil, err
	}
	if kind == "influent" {
		s.mu.Lock()
		feed := s.feedstock.Clone()
		flow := s.flow
		s.mu.Unlock()
		return ExtractInfluent(feed, flow.FlowRate, s.equilibriumConstants())
	}
	res, err := s.Result(reactor, allowStale)
	if err != nil {
		return nil, err
	}
	if kind == "biogas" {
		return ExtractBiogas(res)
	}
	return ExtractEffluent(res, s.equilibriumConstants())
}

// Inhibition recomputes the microbial inhibition factors from one slot's
// cached result. The ambient pH and free ammonia come from the equilibrium
// speciation of the terminal effluent state.
func (s *State) Inhibition(reactor int, allowStale bool) (InhibitionFactors, error) {
	res, err := s.Result(reactor, allowStale)
	if err != nil {
		return nil, err
	}
	totals := ionTotalsFromVector(res.Effluent)
	_, pH, sp, err := SolvePH(totals, s.equilibriumConstants())
	if err != nil {
		return nil, err
	}
	hydrogen := res.Effluent[componentIndex["S_h2"]]
	totalVFA := res.Effluent[componentIndex["S_ac"]] +
		res.Effluent[componentIndex["S_pro"]] +
		res.Effluent[componentIndex["S_bu"]] +
		res.Effluent[componentIndex["S_va"]]
	return ComputeInhibition(pH, sp.NH3, hydrogen, totalVFA, s.groupConstants())
}

// Yields computes the biomass yield diagnostics for one slot from the
// current feedstock and the slot's cached result.
func (s *State) Yields(reactor int, allowStale bool) (*BiomassYields, error) {
	res, err := s.Result(reactor, allowStale)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	feed := s.feedstock.Clone()
	s.mu.Unlock()
	return ComputeYields(feed.Vector(), res.Effluent)
}

// NutrientBalance checks one slot for nutrient limitation and for an
// element mass balance problem between the current feedstock and the slot's
// cached effluent. Only nitrogen is tracked by the component basis.
func (s *State) NutrientBalance(reactor int, element string, allowStale bool,
	t NutrientThresholds) (*NutrientBalanceReport, error) {

	if element != "N" {
		return nil, InvalidParameterError{Name: element,
			Reason: "only nitrogen (N) is tracked by the component basis"}
	}
	res, err := s.Result(reactor, allowStale)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	feed := s.feedstock.Clone()
	kin := s.kinetics.Clone()
	s.mu.Unlock()
	ksIN, err := kin.Value("KS_IN")
	if err != nil {
		return nil, err
	}
	return ComputeNutrientBalance(feed.Vector(), res.Effluent, res.Flow, ksIN, t)
}

// ChargeBalance validates the electroneutrality of the current feedstock.
func (s *State) ChargeBalance() (*BalanceReport, error) {
	s.mu.Lock()
	feed := s.feedstock.Clone()
	tol := s.tolerance
	s.mu.Unlock()
	return ValidateChargeBalance(feed, s.equilibriumConstants(), tol)
}

// Reset clears all reactor slots to unconfigured, drops all cached results,
// and reverts the shared parameters to their documented defaults.
func (s *State) Reset() {
	s.mu.Lock()
	s.feedstock = NewFeedstockState()
	s.kinetics = NewKineticParameterSet()
	s.flow = DefaultFlowConfig()
	s.tolerance = DefaultBalanceTolerance()
	s.mu.Unlock()
	for i := range s.slots {
		sl := &s.slots[i]
		sl.mu.Lock()
		sl.status = SlotUnconfigured
		sl.stale = false
		sl.pendingStale = false
		sl.hasConfig = false
		sl.config = ReactorConfig{}
		sl.result = nil
		sl.mu.Unlock()
	}
}

func (s *State) equilibriumConstants() EquilibriumConstants {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equilibrium
}

func (s *State) groupConstants() map[MicrobialGroup]GroupConstants {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[MicrobialGroup]GroupConstants, len(s.groups))
	for g, c := range s.groups {
		out[g] = c
	}
	return out
}
