package rfpulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseBufferPushPop(t *testing.T) {
	var buf PulseBuffer
	assert.True(t, buf.Empty())

	require.NoError(t, buf.Push(10, 20))
	require.NoError(t, buf.Push(30, 40))
	assert.Equal(t, 2, buf.Num)
	assert.Equal(t, 30, buf.LastPulse())
	assert.Equal(t, 40, buf.LastGap())

	buf.SetLastGap(99)
	assert.Equal(t, 99, buf.LastGap())

	buf.Pop()
	assert.Equal(t, 1, buf.Num)
	assert.Equal(t, 10, buf.LastPulse())

	buf.Pop()
	assert.True(t, buf.Empty())

	// Pop on an empty buffer is a no-op, not a panic.
	buf.Pop()
	assert.True(t, buf.Empty())
}

func TestPulseBufferOverflow(t *testing.T) {
	var buf PulseBuffer
	for i := 0; i < PDMaxPulses; i++ {
		require.NoError(t, buf.Push(i, i))
	}
	assert.True(t, buf.Full())

	err := buf.Push(1, 1)
	assert.ErrorIs(t, err, ErrBufferFull)
	assert.Equal(t, PDMaxPulses, buf.Num, "a failed Push must not mutate the buffer")
}

func TestPulseBufferClearResetsMetadata(t *testing.T) {
	var buf PulseBuffer
	require.NoError(t, buf.Push(5, 5))
	buf.Modulation = ModulationFSK
	buf.Offset = 1234
	buf.OOKLow, buf.OOKHigh = 1, 2
	buf.FSKF1, buf.FSKF2 = 3, 4

	buf.Clear()

	assert.True(t, buf.Empty())
	assert.Equal(t, ModulationUnknown, buf.Modulation)
	assert.Zero(t, buf.Offset)
	assert.Zero(t, buf.OOKLow)
	assert.Zero(t, buf.FSKF1)
}

func TestModulationString(t *testing.T) {
	assert.Equal(t, "OOK", ModulationOOK.String())
	assert.Equal(t, "FSK", ModulationFSK.String())
	assert.Equal(t, "unknown", ModulationUnknown.String())
}
