// Package desim is the cobra CLI entrypoint (spec.md §4.K), mirroring
// cmd/root.go's flag-binding style: package-level flag vars, a root
// command with one "run" subcommand, logrus level parsed from a --log
// flag.
package desim

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/desim/buildspec"
	"github.com/inference-sim/desim/clock"
	"github.com/inference-sim/desim/config"
	"github.com/inference-sim/desim/driver"
)

func loadSpec(data []byte) (buildspec.Spec, error) {
	spec, err := buildspec.LoadYAML(data)
	if err != nil {
		return buildspec.Spec{}, fmt.Errorf("parsing spec file: %w", err)
	}
	return spec, nil
}

var (
	specPath           string
	seed               uint64
	maxEvents          int64
	maxSimTime         float64
	failurePolicy      string
	jitterDistribution string
	timeBackend        string
	logLevel           string
)

var rootCmd = &cobra.Command{
	Use:   "desim",
	Short: "Discrete-event network simulator core",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a build spec to completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		data, err := os.ReadFile(specPath)
		if err != nil {
			return fmt.Errorf("reading spec file %q: %w", specPath, err)
		}
		spec, err := loadSpec(data)
		if err != nil {
			return err
		}

		cfg := config.Default()
		cfg.Seed = seed
		if maxEvents > 0 {
			v := uint64(maxEvents)
			cfg.MaxEvents = &v
		}
		switch failurePolicy {
		case "AbortOnFirst":
			cfg.FailurePolicy = config.AbortOnFirst
		case "ContinueLogged":
			cfg.FailurePolicy = config.ContinueLogged
		default:
			return fmt.Errorf("unknown failure policy %q", failurePolicy)
		}
		switch jitterDistribution {
		case "Uniform":
			cfg.JitterDistribution = config.JitterUniform
		case "Normal":
			cfg.JitterDistribution = config.JitterNormal
		case "Zero":
			cfg.JitterDistribution = config.JitterZero
		default:
			return fmt.Errorf("unknown jitter distribution %q", jitterDistribution)
		}
		switch timeBackend {
		case "Float64":
			cfg.TimeBackend = clock.BackendFloat64
		case "Fixed128":
			cfg.TimeBackend = clock.BackendFixed128
		default:
			return fmt.Errorf("unknown time backend %q", timeBackend)
		}
		if maxSimTime > 0 {
			if cfg.TimeBackend == clock.BackendFixed128 {
				cfg.MaxSimTime = clock.NewFixed128Seconds(maxSimTime)
			} else {
				cfg.MaxSimTime = clock.Float64Time(maxSimTime)
			}
			cfg.HasMaxTime = true
		}

		logrus.Infof("desim: running spec %s", specPath)
		report, err := driver.Run(spec, cfg, registeredFactories(), nil)
		if err != nil {
			return err
		}
		logrus.Infof("desim: events=%d end_time=%v reason=%s errors=%d",
			report.EventsDispatched, report.EndTime, report.Reason, len(report.Errors))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&specPath, "spec", "", "path to a build spec YAML file")
	runCmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "PRNG seed")
	runCmd.Flags().Int64Var(&maxEvents, "max-events", 0, "cap on dispatched event count (0 = unbounded)")
	runCmd.Flags().Float64Var(&maxSimTime, "max-simtime", 0, "cap on simulated time in seconds (0 = unbounded)")
	runCmd.Flags().StringVar(&failurePolicy, "failure-policy", "ContinueLogged", "AbortOnFirst or ContinueLogged")
	runCmd.Flags().StringVar(&jitterDistribution, "jitter-distribution", "Uniform", "Uniform, Normal, or Zero")
	runCmd.Flags().StringVar(&timeBackend, "time-backend", "Float64", "Float64 or Fixed128")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	_ = runCmd.MarkFlagRequired("spec")

	rootCmd.AddCommand(runCmd)
}
