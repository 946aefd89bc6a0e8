// Package main provides the mygrad CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/born-ml/mygrad/internal/config"
	"github.com/born-ml/mygrad/internal/runner"
	"github.com/born-ml/mygrad/internal/serialization"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const version = "v0.1.0-dev"

var (
	// Global flags
	verbose    bool
	configPath string

	// Per-command flags
	problemName string
	outPath     string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mygrad",
	Short: "Value-and-gradient kernels with a reference reverse-mode AD host",
	Long: `mygrad evaluates differentiable kernels (sin-square sum, log-densities,
Cholesky log-determinant) described in a YAML problem file, and checks their
analytic gradients against centered finite differences.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to parse log level: %w", err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mygrad %s\n", version)
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate problems and print values and gradients",
	RunE:  runEval,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare analytic gradients with finite differences",
	Long: `Evaluates every problem (or the one named by --problem) and compares each
differentiable input's gradient with a centered finite-difference estimate.
Exits non-zero when any component exceeds the configured tolerance.`,
	RunE: runCheck,
}

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Optimize a problem's differentiable inputs with SGD or Adam",
	Long: `Runs the optimizer configured under "fit" on the differentiable inputs of
every problem (or the one named by --problem), minimizing the kernel value
or maximizing it when fit.maximize is set.`,
	RunE: runFit,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mygrad.yaml", "Problem file")

	evalCmd.Flags().StringVarP(&problemName, "problem", "p", "", "Evaluate only this problem")
	evalCmd.Flags().StringVarP(&outPath, "out", "o", "", "Also write gradients to this SafeTensors file")
	checkCmd.Flags().StringVarP(&problemName, "problem", "p", "", "Check only this problem")
	fitCmd.Flags().StringVarP(&problemName, "problem", "p", "", "Fit only this problem")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// selected returns the problems named by --problem, or all of them.
func selected() ([]config.Problem, error) {
	if problemName == "" {
		if len(cfg.Problems) == 0 {
			return nil, fmt.Errorf("no problems in %s", configPath)
		}
		return cfg.Problems, nil
	}
	p, ok := cfg.Problem(problemName)
	if !ok {
		return nil, fmt.Errorf("problem %q not found in %s", problemName, configPath)
	}
	return []config.Problem{p}, nil
}

type evalOutput struct {
	Problem   string        `yaml:"problem"`
	Kernel    string        `yaml:"kernel"`
	Value     float64       `yaml:"value"`
	Gradients []gradientOut `yaml:"gradients,omitempty"`
}

type gradientOut struct {
	Input  string    `yaml:"input"`
	Shape  []int     `yaml:"shape,flow"`
	Values []float64 `yaml:"values,flow"`
}

type checkOutput struct {
	Problem    string   `yaml:"problem"`
	OK         bool     `yaml:"ok"`
	Partials   int      `yaml:"partials"`
	MaxRelErr  float64  `yaml:"max_rel_err"`
	Mismatches []string `yaml:"mismatches,omitempty"`
}

type fitOutput struct {
	Problem string        `yaml:"problem"`
	Steps   int           `yaml:"steps"`
	Initial float64       `yaml:"initial"`
	Final   float64       `yaml:"final"`
	Inputs  []gradientOut `yaml:"inputs"`
}

func toOutput(r runner.Result) evalOutput {
	out := evalOutput{Problem: r.Problem, Kernel: r.Kernel, Value: r.Value}
	for _, g := range r.Gradients {
		out.Gradients = append(out.Gradients, gradientOut{
			Input:  g.Input,
			Shape:  []int{g.Rows, g.Cols},
			Values: g.Values,
		})
	}
	return out
}

func runEval(cmd *cobra.Command, args []string) error {
	problems, err := selected()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := runner.New(logger, cfg).EvalAll(ctx, problems)
	if err != nil {
		return err
	}

	out := make([]evalOutput, len(results))
	for i, r := range results {
		out[i] = toOutput(r)
	}
	if outPath != "" {
		if err := saveGradients(outPath, results); err != nil {
			return err
		}
		logger.Info("wrote gradients", zap.String("path", outPath), zap.Int("problems", len(results)))
	}
	return writeYAML(cmd, out)
}

// saveGradients writes every gradient as a tensor named "<problem>.<input>",
// with each problem's value in the file metadata.
func saveGradients(path string, results []runner.Result) error {
	tensors := make(map[string]serialization.Tensor)
	metadata := make(map[string]string, len(results))
	for _, r := range results {
		metadata[r.Problem] = strconv.FormatFloat(r.Value, 'g', -1, 64)
		for _, g := range r.Gradients {
			tensors[r.Problem+"."+g.Input] = serialization.Tensor{Shape: []int{g.Rows, g.Cols}, Data: g.Values}
		}
	}
	return serialization.WriteSafeTensors(path, tensors, metadata)
}

func runCheck(cmd *cobra.Command, args []string) error {
	problems, err := selected()
	if err != nil {
		return err
	}

	r := runner.New(logger, cfg)
	var out []checkOutput
	failed := 0
	for _, p := range problems {
		if err := contextDone(cmd.Context()); err != nil {
			return err
		}
		res, err := r.Check(p)
		if err != nil {
			return err
		}
		co := checkOutput{
			Problem:   p.Name,
			OK:        res.Report.OK(),
			Partials:  res.Report.N,
			MaxRelErr: res.Report.MaxRelErr,
		}
		for _, m := range res.Report.Mismatches {
			co.Mismatches = append(co.Mismatches, m.String())
		}
		if !co.OK {
			failed++
		}
		out = append(out, co)
	}

	if err := writeYAML(cmd, out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d problems failed the gradient check", failed, len(problems))
	}
	return nil
}

func contextDone(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}

func runFit(cmd *cobra.Command, args []string) error {
	problems, err := selected()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(logger, cfg)
	out := make([]fitOutput, 0, len(problems))
	for _, p := range problems {
		res, err := r.Fit(ctx, p, cfg.Fit)
		if err != nil {
			return err
		}
		fo := fitOutput{Problem: res.Problem, Steps: res.Steps, Initial: res.Initial, Final: res.Final}
		for _, in := range res.Inputs {
			fo.Inputs = append(fo.Inputs, gradientOut{Input: in.Input, Shape: []int{in.Rows, in.Cols}, Values: in.Values})
		}
		out = append(out, fo)
	}
	return writeYAML(cmd, out)
}
