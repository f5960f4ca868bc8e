package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cloudcmds/serpent/object"
	"github.com/cloudcmds/serpent/vm"
)

func newRunCommand() *cobra.Command {
	var trace bool
	var recursionLimit int

	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Execute compiled code objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result error
			for _, path := range args {
				if err := runFile(path, trace, recursionLimit); err != nil {
					result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
				}
			}
			return result
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "Log each executed instruction")
	cmd.Flags().IntVar(&recursionLimit, "recursion-limit", 0, "Override the call depth limit")
	return cmd
}

func runFile(path string, trace bool, recursionLimit int) error {
	code, err := loadCode(path)
	if err != nil {
		return err
	}
	opts := []vm.Option{}
	if recursionLimit > 0 {
		opts = append(opts, vm.WithRecursionLimit(recursionLimit))
	}
	if trace {
		opts = append(opts, vm.WithObserver(traceObserver{}, vm.ObserverConfig{
			StepMode:       vm.StepAll,
			ObserveCalls:   true,
			ObserveReturns: true,
		}))
	}
	result, err := vm.New(opts...).Run(code)
	if err != nil {
		return err
	}
	if result != nil && result != object.Object(object.None) {
		fmt.Println(result.Inspect())
	}
	return nil
}

// traceObserver logs execution events through the global logger.
type traceObserver struct{}

func (traceObserver) OnStep(e vm.StepEvent) bool {
	log.Trace().
		Int("ip", e.IP).
		Str("op", e.OpcodeName).
		Int("line", e.Line).
		Int("stack", e.StackDepth).
		Msg("step")
	return true
}

func (traceObserver) OnCall(e vm.CallEvent) bool {
	log.Debug().Str("function", e.FunctionName).Int("depth", e.Depth).Msg("call")
	return true
}

func (traceObserver) OnReturn(e vm.ReturnEvent) bool {
	log.Debug().Str("function", e.FunctionName).Int("depth", e.Depth).Msg("return")
	return true
}
