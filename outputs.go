package log4g

import (
	"io"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// OutType is an alias for io.Writer to represent fan-out outputs.
//
// Outputs are map keys, so their dynamic type must be comparable (pointers,
// files, comparable structs). Writers of other types are ignored.
type OutType io.Writer

// usableOutput reports whether out can be a key of the outputs map.
func usableOutput(out OutType) bool {
	return out != nil && reflect.TypeOf(out).Comparable()
}

// outList maps output writers to their per-output context (settings).
type outList map[OutType]*outContext

// outContext holds filtering options for a specific output.
type outContext struct {
	enabled  bool     // whether this output is enabled for writing
	minlevel LogLevel // minimal level accepted by this output
}

// Outputs is a sink that copies every line to a set of io.Writers. Each output
// can be disabled or given its own minimal level independently of the logger
// threshold. An output that panics while writing is disabled.
//
// Writes to all outputs happen under one mutex, so lines never interleave on
// any of them.
type Outputs struct {
	outsMtx sync.Mutex // guards outputs map and serializes writes
	outputs outList
	msgbuf  []byte // buffer reused while terminating lines
}

var _ LevelSink = (*Outputs)(nil)

// NewOutputs creates a fan-out sink with the given outputs enabled.
func NewOutputs(outputs ...OutType) *Outputs {
	o := &Outputs{outputs: outList{}, msgbuf: make([]byte, 0, DEFAULT_OUT_BUFF)}
	return o.AddOutputs(outputs...)
}

// Attaches one or more outputs and creates a default context for each.
// Nil and non-comparable outputs are ignored, already attached outputs are
// reset to defaults.
func (o *Outputs) AddOutputs(outputs ...OutType) *Outputs {
	o.operateOutputs(outputs, func(m outList, k OutType) {
		m[k] = &outContext{enabled: true}
	})
	return o
}

// Removes the provided outputs. No errors if there is no such output.
func (o *Outputs) RemoveOutputs(outputs ...OutType) *Outputs {
	o.operateOutputs(outputs, func(m outList, k OutType) { delete(m, k) })
	return o
}

// Removes all outputs.
func (o *Outputs) ClearOutputs() *Outputs {
	o.outsMtx.Lock()
	defer o.outsMtx.Unlock()
	clear(o.outputs)
	return o
}

// Helper that applies the operation for each usable output from the provided
// slice with the outputs mutex held.
func (o *Outputs) operateOutputs(slice []OutType, operation func(m outList, k OutType)) {
	if len(slice) == 0 {
		return
	}
	o.outsMtx.Lock()
	defer o.outsMtx.Unlock()
	for _, output := range slice {
		if usableOutput(output) {
			operation(o.outputs, output)
		}
	}
}

// Returns the attached outputs (in no particular order).
func (o *Outputs) List() []OutType {
	o.outsMtx.Lock()
	defer o.outsMtx.Unlock()
	return slices.Collect(maps.Keys(o.outputs))
}

// Returns whether a specified output is attached
func (o *Outputs) IsOutputExists(out OutType) bool {
	if !usableOutput(out) {
		return false
	}
	o.outsMtx.Lock()
	defer o.outsMtx.Unlock()
	return o.outputs[out] != nil
}

// Returns whether an output is enabled for writes (false if output doesn't exist)
func (o *Outputs) IsOutputEnabled(out OutType) bool {
	if !usableOutput(out) {
		return false
	}
	o.outsMtx.Lock()
	defer o.outsMtx.Unlock()
	if c := o.outputs[out]; c != nil {
		return c.enabled
	}
	return false
}

// Enables or disables writes to the output (re-enabling also revives an output
// disabled after a panic).
func (o *Outputs) SetOutputEnabled(output OutType, enabled bool) *Outputs {
	return o.changeOutSettings(output, func(c *outContext) {
		c.enabled = enabled
	})
}

// Sets the minimal level to write for the specified output.
//
// Used in addition to the logger threshold. Lines written without a level
// (WriteLine) ignore it.
func (o *Outputs) SetOutputMinLevel(output OutType, minlevel LogLevel) *Outputs {
	return o.changeOutSettings(output, func(c *outContext) {
		c.minlevel = normLevel(minlevel)
	})
}

// Safely modifies a context with a given function for the given output (if it exists).
func (o *Outputs) changeOutSettings(output OutType, f func(*outContext)) *Outputs {
	if !usableOutput(output) {
		return o
	}
	o.outsMtx.Lock()
	defer o.outsMtx.Unlock()
	if c := o.outputs[output]; c != nil {
		f(c)
	}
	return o
}

/////////////////////////////////////////////////////////////////////////////////////////

// WriteLine implements Sink, writing to every enabled output.
func (o *Outputs) WriteLine(line []byte) error {
	return o.writeLine(LVL_UNKNOWN, line)
}

// WriteLevelLine implements LevelSink, skipping outputs whose minimal level
// is above level.
func (o *Outputs) WriteLevelLine(level LogLevel, line []byte) error {
	return o.writeLine(normLevel(level), line)
}

// Walks the outputs map and writes the line to each enabled output. If a write
// panics the output is disabled to avoid repeated panics. Errors of all
// outputs are collected into one.
func (o *Outputs) writeLine(level LogLevel, line []byte) error {
	o.outsMtx.Lock()
	defer o.outsMtx.Unlock()
	defer func() { o.msgbuf = releaseLineBuff(o.msgbuf) }()
	o.msgbuf = append(append(o.msgbuf[:0], line...), '\n')
	var merr *multierror.Error
	for output, settings := range o.outputs {
		if !settings.enabled || (level != LVL_UNKNOWN && level < settings.minlevel) {
			continue
		}
		panicked, err := writeToOutput(output, o.msgbuf)
		if panicked {
			// got panic writing, disable output for further writes
			settings.enabled = false
		}
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if merr != nil {
		merr.ErrorFormat = joinErrorFormat
	}
	return merr.ErrorOrNil()
}

// writeToOutput writes data to a single output. It returns panicked (true if a
// panic occurred while writing) and err for any write-related error.
func writeToOutput(output OutType, data []byte) (panicked bool, err error) {
	// only returns of named result values can be changed by defer
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = &writeError{err: panicError(r)}
		}
	}()
	n, e := output.Write(data)
	if e == nil && n < len(data) {
		e = io.ErrShortWrite
	}
	if e != nil {
		err = &writeError{written: n, err: e}
	}
	return
}

type panicValueError string

func (e panicValueError) Error() string { return string(e) }

func panicError(r any) error {
	return panicValueError("panic" + panicDesc(r))
}
