package vm

import "github.com/cloudcmds/serpent/op"

// StepMode controls how often the per-instruction observer callback fires.
type StepMode int

const (
	// StepNone disables per-instruction callbacks.
	StepNone StepMode = iota

	// StepAll fires on every instruction.
	StepAll

	// StepSampled fires on every Nth instruction.
	StepSampled

	// StepOnLine fires when execution moves to a different source line.
	StepOnLine
)

// ObserverConfig selects which execution events an observer receives.
type ObserverConfig struct {
	StepMode       StepMode
	SampleInterval int
	ObserveCalls   bool
	ObserveReturns bool
}

// StepEvent describes one instruction about to execute.
type StepEvent struct {
	IP         int
	Opcode     op.Code
	OpcodeName string
	Line       int
	StackDepth int
	FrameDepth int
}

// CallEvent describes entry into a function frame.
type CallEvent struct {
	FunctionName string
	Depth        int
}

// ReturnEvent describes a normal return from a function frame.
type ReturnEvent struct {
	FunctionName string
	Depth        int
}

// Observer receives execution events. Each callback returns false to halt
// the machine, which surfaces as ErrHalted.
type Observer interface {
	OnStep(e StepEvent) bool
	OnCall(e CallEvent) bool
	OnReturn(e ReturnEvent) bool
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil
// callbacks allow everything.
type ObserverFuncs struct {
	Step   func(e StepEvent) bool
	Call   func(e CallEvent) bool
	Return func(e ReturnEvent) bool
}

func (o ObserverFuncs) OnStep(e StepEvent) bool {
	if o.Step == nil {
		return true
	}
	return o.Step(e)
}

func (o ObserverFuncs) OnCall(e CallEvent) bool {
	if o.Call == nil {
		return true
	}
	return o.Call(e)
}

func (o ObserverFuncs) OnReturn(e ReturnEvent) bool {
	if o.Return == nil {
		return true
	}
	return o.Return(e)
}
