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

// Package adsimutil wires the simulation engine into a command-line
// interface with file- and flag-based configuration.
package adsimutil

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/processmodel/adsim"
	"github.com/processmodel/adsim/assist"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to ADSim.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "scenario",
			usage: `
              scenario specifies a TOML scenario file holding feedstock
              concentrations, kinetic parameter overrides, flow settings,
              and reactor configurations. Without it the built-in default
              scenario is used.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "reactor",
			usage: `
              reactor specifies which reactor slots to operate on.`,
			defaultVal: []int{1},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), analyzeCmd.Flags()},
		},
		{
			name: "stream",
			usage: `
              stream specifies the process stream to analyze: "influent",
              "effluentN", or "biogasN" where N is a reactor index.`,
			defaultVal: "effluent1",
			flagsets:   []*pflag.FlagSet{analyzeCmd.Flags()},
		},
		{
			name: "allowstale",
			usage: `
              allowstale reads results whose inputs changed after the run
              instead of failing.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{analyzeCmd.Flags()},
		},
		{
			name: "goal",
			usage: `
              goal describes the process objective the assistant should
              optimize the parameters toward.`,
			defaultVal: "maximize methane production at stable pH",
			flagsets:   []*pflag.FlagSet{describeCmd.Flags()},
		},
		{
			name: "assist.url",
			usage: `
              assist.url is the chat completion endpoint for parameter
              suggestions.`,
			defaultVal: "https://api.openai.com/v1/chat/completions",
			flagsets:   []*pflag.FlagSet{describeCmd.Flags()},
		},
		{
			name: "assist.model",
			usage: `
              assist.model is the language model to ask for parameter
              suggestions.`,
			defaultVal: "gpt-4o-mini",
			flagsets:   []*pflag.FlagSet{describeCmd.Flags()},
		},
		{
			name: "assist.apikey",
			usage: `
              assist.apikey authenticates against the assistant endpoint.
              Prefer setting it through the ADSIM_ASSIST.APIKEY environment
              variable.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{describeCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ADSIM")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(validateCmd)
	Root.AddCommand(analyzeCmd)
	Root.AddCommand(describeCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("adsim: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "adsim",
	Short: "An anaerobic digestion process simulator.",
	Long: `ADSim simulates anaerobic digestion in up to three continuously
stirred tank reactors using the ADM1 component basis, and analyzes the
resulting process streams, microbial inhibition, and biomass yields.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'ADSIM_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of ADSim.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ADSim v%s\n", adsim.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the digestion simulation.",
	Long: `run integrates the process model for the selected reactor slots
and prints the effluent and biogas properties of each.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reactors, err := cast.ToIntSliceE(Cfg.Get("reactor"))
		if err != nil {
			return err
		}
		state, err := buildState(Cfg.GetString("scenario"))
		if err != nil {
			return err
		}
		ctx := context.Background()
		for _, r := range reactors {
			log.WithFields(logrus.Fields{"reactor": r}).Info("starting simulation")
			if err := state.Run(ctx, r); err != nil {
				return err
			}
			for _, id := range []adsim.StreamID{adsim.EffluentStream(r), adsim.BiogasStream(r)} {
				props, err := state.StreamProperties(id, false)
				if err != nil {
					return err
				}
				printProps(cmd, props)
			}
			factors, err := state.Inhibition(r, false)
			if err != nil {
				return err
			}
			g, f := factors.Dominant()
			log.WithFields(logrus.Fields{
				"reactor": r,
				"group":   g.String(),
				"factor":  f,
			}).Info("most inhibited pathway")
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check feedstock electroneutrality.",
	Long: `validate evaluates the feedstock charge balance at its declared
pH and suggests the minimal ion pool adjustment when it does not close.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := buildState(Cfg.GetString("scenario"))
		if err != nil {
			return err
		}
		rep, err := state.ChargeBalance()
		if err != nil {
			return err
		}
		cmd.Printf("pH %.2f: residual %.4g eq/L (relative %.2f%%)\n",
			rep.PH, rep.Residual, rep.Relative*100)
		if rep.Balanced {
			cmd.Println("feedstock is electroneutral within tolerance")
			return nil
		}
		if rep.CationAdjustment > 0 {
			cmd.Printf("suggest adding %.4g keq/m³ to S_cat\n", rep.CationAdjustment)
		} else {
			cmd.Printf("suggest adding %.4g keq/m³ to S_an\n", rep.AnionAdjustment)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a process stream.",
	Long: `analyze runs the simulation where needed and prints the
unit-tagged properties of the selected stream along with the inhibition
factors and biomass yields of its reactor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := buildState(Cfg.GetString("scenario"))
		if err != nil {
			return err
		}
		id := adsim.StreamID(Cfg.GetString("stream"))
		allowStale := Cfg.GetBool("allowstale")
		reactors, err := cast.ToIntSliceE(Cfg.Get("reactor"))
		if err != nil {
			return err
		}
		ctx := context.Background()
		for _, r := range reactors {
			if err := state.Run(ctx, r); err != nil {
				return err
			}
		}
		props, err := state.StreamProperties(id, allowStale)
		if err != nil {
			return err
		}
		printProps(cmd, props)
		if id == adsim.Influent {
			return nil
		}
		for _, r := range reactors {
			factors, err := state.Inhibition(r, allowStale)
			if err != nil {
				return err
			}
			for _, g := range adsim.MicrobialGroups() {
				f := factors[g]
				cmd.Printf("reactor %d %-30s composite %.3f (pH %.3f, NH3 %.3f, H2 %.3f, VFA %.3f)\n",
					r, g, f.Composite, f.PH, f.FreeAmmonia, f.Hydrogen, f.VFA)
			}
			y, err := state.Yields(r, allowStale)
			if err != nil {
				return err
			}
			cmd.Printf("reactor %d COD removal %.1f%%, VSS yield %.3f, TSS yield %.3f kg/kg COD\n",
				r, y.CODRemoval*100, y.VSSYield, y.TSSYield)
			nb, err := state.NutrientBalance(r, "N", allowStale, adsim.DefaultNutrientThresholds())
			if err != nil {
				return err
			}
			cmd.Printf("reactor %d nitrogen limitation %.1f%%, effluent/influent N ratio %.2f\n",
				r, nb.Limitation*100, nb.MassRatio)
			if nb.LimitationDetected {
				log.WithFields(logrus.Fields{"reactor": r, "limitation": nb.Limitation}).Warn("nitrogen limitation")
			}
			if nb.MassBalanceIssue {
				log.WithFields(logrus.Fields{"reactor": r, "ratio": nb.MassRatio}).Warn("nitrogen mass balance problem")
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Ask the assistant for parameter suggestions.",
	Long: `describe sends the current feedstock and kinetic parameters to a
language-model service and prints its suggested changes. Nothing is
applied automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := loadScenario(Cfg.GetString("scenario"))
		if err != nil {
			return err
		}
		f, k, err := sc.parameters()
		if err != nil {
			return err
		}
		client := assist.NewClient(
			Cfg.GetString("assist.url"),
			Cfg.GetString("assist.model"),
			Cfg.GetString("assist.apikey"),
		)
		client.Log = log
		rec, err := assist.Suggest(context.Background(), client, Cfg.GetString("goal"), f, k)
		if err != nil {
			return err
		}
		printRecommendation(cmd, "feedstock", rec.Feedstock, rec)
		printRecommendation(cmd, "kinetics", rec.Kinetics, rec)
		return nil
	},
	DisableAutoGenTag: true,
}

var log = logrus.StandardLogger()

func printProps(cmd *cobra.Command, props *adsim.StreamProperties) {
	cmd.Printf("stream %s:\n", props.Stream)
	names := props.Names()
	sort.Strings(names)
	for _, name := range names {
		u := props.Props[name]
		cmd.Printf("  %-30s %v\n", name, u)
	}
}

func printRecommendation(cmd *cobra.Command, kind string, values map[string]float64, rec *assist.Recommendation) {
	if len(values) == 0 {
		return
	}
	cmd.Printf("%s suggestions:\n", kind)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("  %-10s %-10g %-12s %s\n", name, values[name], rec.Units[name], rec.Rationale[name])
	}
}

// Execute runs the root command and exits nonzero on failure.
func Execute() {
	if err := Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
