package timeserie

import (
	"testing"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleLogFreezeRejectsAppend(t *testing.T) {
	l := NewSampleLog()
	require.True(t, l.Append(types.Sample{Timestamp: 1}))
	require.True(t, l.Append(types.Sample{Timestamp: 2}))

	out := l.Freeze()
	require.Len(t, out, 2)
	assert.False(t, l.Append(types.Sample{Timestamp: 3}))
	assert.Equal(t, 2, l.Len())

	out[0].Timestamp = 99
	again := l.Freeze()
	assert.Equal(t, 1.0, again[0].Timestamp)
}

func TestSampleLogReset(t *testing.T) {
	l := NewSampleLog()
	l.Append(types.Sample{Timestamp: 1})
	l.Freeze()

	l.Reset()
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Append(types.Sample{Timestamp: 2}))
}
