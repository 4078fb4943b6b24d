package log4g

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Returns the outContext for a given output by pointer so it can be checked
// directly. Use for test purposes only.
func (o *Outputs) getContext(output OutType) *outContext {
	return o.outputs[output]
}

// Value-receiver writer with a slice field, so it can't be a map key.
type sliceWriter struct{ lines []string }

func (w sliceWriter) Write(b []byte) (int, error) { return len(b), nil }

func Test_Outputs_AddOutputs(t *testing.T) {
	var o *Outputs
	t.Run("add_1_16", func(t *testing.T) {
		for i := range 16 {
			outs := []OutType{}
			for range i + 1 {
				outs = append(outs, &FakeWriter{})
			}
			assert.NotPanics(t, func() {
				o = NewOutputs()
				ores := o.AddOutputs(outs...)
				assert.Equal(t, o, ores, "result is another sink")
			})
			assert.Equal(t, len(outs), len(o.List()), "wrong outputs quantity")
		}
	})
	t.Run("add_3clones_1_16", func(t *testing.T) {
		for i := range 16 {
			outs := []OutType{}
			for range i + 1 {
				out := &FakeWriter{}
				outs = append(outs, out, out, out)
			}
			o = NewOutputs(outs...)
			assert.Equal(t, len(outs)/3, len(o.List()), "wrong outputs quantity")
		}
	})
	t.Run("add_nils_and_empties", func(t *testing.T) {
		o = NewOutputs()
		for range 16 {
			o.AddOutputs(nil).AddOutputs([]OutType{}...)
		}
		assert.Empty(t, o.List(), "outputs exist")
	})
	t.Run("non_comparable", func(t *testing.T) {
		out := sliceWriter{}
		require.NotPanics(t, func() { o = NewOutputs(out) })
		assert.Empty(t, o.List(), "non-comparable output attached")
		assert.NotPanics(t, func() {
			assert.False(t, o.IsOutputExists(out))
			assert.False(t, o.IsOutputEnabled(out))
			o.SetOutputEnabled(out, true).SetOutputMinLevel(out, LVL_WARN).RemoveOutputs(out)
		})
	})
	t.Run("re_add_resets", func(t *testing.T) {
		out := &FakeWriter{}
		o = NewOutputs(out).SetOutputEnabled(out, false).SetOutputMinLevel(out, LVL_ERROR)
		o.AddOutputs(out)
		assert.Equal(t, &outContext{enabled: true}, o.getContext(out))
	})
}

func Test_Outputs_LineBuffer(t *testing.T) {
	out := &FakeWriter{}
	o := NewOutputs(out)
	require.NoError(t, o.WriteLine(make([]byte, 2*_MAX_POOLED_BUFF)))
	assert.LessOrEqual(t, cap(o.msgbuf), _MAX_POOLED_BUFF, "oversized buffer kept")
	require.NoError(t, o.WriteLine([]byte(testlogstr)))
	assert.True(t, strings.HasSuffix(out.String(), testlogstr+"\n"))
}

func Test_Outputs_RemoveAndClear(t *testing.T) {
	out1, out2, out3 := &FakeWriter{}, &FakeWriter{}, &FakeWriter{}
	o := NewOutputs(out1, out2, out3)
	o.RemoveOutputs(out2, nil, &FakeWriter{})
	assert.ElementsMatch(t, []OutType{out1, out3}, o.List())
	assert.False(t, o.IsOutputExists(out2))
	assert.True(t, o.IsOutputExists(out1))

	assert.Equal(t, o, o.ClearOutputs())
	assert.Empty(t, o.List())
	assert.NoError(t, o.WriteLine([]byte("nowhere")))
}

func Test_Outputs_SetOutputEnabled(t *testing.T) {
	out1, out2 := &FakeWriter{}, &FakeWriter{}
	o := NewOutputs(out1, out2)
	assert.True(t, o.IsOutputEnabled(out1))
	o.SetOutputEnabled(out1, false)
	assert.False(t, o.IsOutputEnabled(out1))
	assert.False(t, o.IsOutputEnabled(&FakeWriter{}), "missing output is not enabled")
	assert.NotPanics(t, func() { o.SetOutputEnabled(&FakeWriter{}, true) })

	require.NoError(t, o.WriteLine([]byte("only second")))
	assert.Empty(t, out1.buffer)
	assert.Equal(t, "only second\n", out2.String())
}

func Test_Outputs_SetOutputMinLevel(t *testing.T) {
	all, severe := &FakeWriter{}, &FakeWriter{}
	o := NewOutputs(all, severe).SetOutputMinLevel(severe, LVL_ERROR)
	assert.Equal(t, LVL_ERROR, o.getContext(severe).minlevel)

	for _, level := range Levels() {
		require.NoError(t, o.WriteLevelLine(level, []byte(level.String())))
	}
	require.NoError(t, o.WriteLine([]byte("no level")))
	assert.Equal(t, "TRACE\nDEBUG\nINFO\nWARN\nERROR\nFATAL\nno level\n", all.String())
	assert.Equal(t, "ERROR\nFATAL\nno level\n", severe.String())

	o.SetOutputMinLevel(severe, 200)
	assert.Equal(t, LVL_UNKNOWN, o.getContext(severe).minlevel, "undefined floor is normalized")
}

func Test_Outputs_WriteErrors(t *testing.T) {
	t.Run("error_output", func(t *testing.T) {
		out := &FakeWriter{}
		ew := &ErrorWriter{}
		o := NewOutputs(out, ew)
		err := o.WriteLine([]byte(testlogstr))
		assert.ErrorContains(t, err, errorStr)
		assert.Equal(t, testlogstr+"\n", out.String())
		assert.True(t, o.IsOutputEnabled(ew), "erroring output must stay enabled")
	})
	t.Run("panic_output", func(t *testing.T) {
		out1, out2 := &FakeWriter{}, &FakeWriter{}
		pw := &PanicWriter{}
		o := NewOutputs(out1, pw, out2)
		err := o.WriteLine([]byte("first"))
		assert.ErrorContains(t, err, "`"+panicStr+"`")
		assert.False(t, o.IsOutputEnabled(pw), "panicking output must be disabled")

		assert.NoError(t, o.WriteLine([]byte("second")))
		assert.Equal(t, "first\nsecond\n", out1.String())
		assert.Equal(t, "first\nsecond\n", out2.String())

		// re-enabling revives it
		o.SetOutputEnabled(pw, true)
		assert.Error(t, o.WriteLine([]byte("third")))
	})
	t.Run("aggregated", func(t *testing.T) {
		o := NewOutputs(&ErrorWriter{}, &ZeroPanicWriter{}, &NilPanicWriter{})
		err := o.WriteLine([]byte("x"))
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "3 errors occurred: "), err.Error())
		assert.NotContains(t, err.Error(), "\n", "aggregated error must be one line")
		assert.Equal(t, 1, strings.Count(err.Error(), _ERROR_UNKNOWN_PANIC_TEXT))
	})
}

func Test_Outputs_AsLoggerSink(t *testing.T) {
	all, severe := &FakeWriter{}, &FakeWriter{}
	o := NewOutputs(all, severe).SetOutputMinLevel(severe, LVL_WARN)
	l := InitWithParams("multi", LVL_DEBUG, MustCompile("%level{short} %msg"), o, nil)
	l.Trace("filtered by logger")
	l.Debug("d")
	l.Warn("w")
	assert.Equal(t, "DBG d\nWRN w\n", all.String())
	assert.Equal(t, "WRN w\n", severe.String())
}
