package executor

import (
	"testing"

	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOpts() MarkerOptions {
	return MarkerOptions{Tag: DefaultMarkerTag, SuccessTokens: DefaultSuccessTokens, FailureTokens: DefaultFailureTokens}
}

func TestParseMarkersWindow(t *testing.T) {
	out := "loading graph\n[METRICS] BFS_TIME_START=1000\nrunning\n[METRICS] BFS_TIME_END=1500\nTime: 480ms\n验证成功\n"
	m := ParseMarkers(out, defaultOpts())

	require.NotNil(t, m.Window)
	assert.Equal(t, types.PhaseWindow{Start: 1.0, End: 1.5}, *m.Window)
	assert.Equal(t, int64(500), m.Window.DurationMs())
	assert.True(t, m.HasReportedTime)
	assert.Equal(t, int64(480), m.ReportedTimeMs)
	require.NotNil(t, m.Verified)
	assert.True(t, *m.Verified)
}

func TestParseMarkersAnyOrder(t *testing.T) {
	out := "[METRICS] BFS_TIME_END=2000\n[METRICS] BFS_TIME_START=1000\n"
	m := ParseMarkers(out, defaultOpts())
	require.NotNil(t, m.Window)
	assert.Equal(t, 1.0, m.Window.Start)
	assert.Equal(t, 2.0, m.Window.End)
}

func TestParseMarkersMissingEnd(t *testing.T) {
	m := ParseMarkers("[METRICS] BFS_TIME_START=1000\n", defaultOpts())
	assert.Nil(t, m.Window)
	assert.Equal(t, int64(1000), m.Values["BFS_TIME_START"])
}

func TestParseMarkersMalformedIgnored(t *testing.T) {
	out := "[METRICS] BFS_TIME_START=abc\n[METRICS]BFS_TIME_END\n[METRICS] =12\nprefix [METRICS] BFS_TIME_END=5\n"
	m := ParseMarkers(out, defaultOpts())
	assert.Nil(t, m.Window)
	assert.Empty(t, m.Values)
}

func TestParseMarkersLaterValueWins(t *testing.T) {
	out := "[METRICS] BFS_TIME_START=1000\n[METRICS] BFS_TIME_START=1200\n[METRICS] BFS_TIME_END=1500\n"
	m := ParseMarkers(out, defaultOpts())
	require.NotNil(t, m.Window)
	assert.Equal(t, 1.2, m.Window.Start)
}

func TestParseMarkersStartAfterEndIsNotValidated(t *testing.T) {
	out := "[METRICS] BFS_TIME_START=2000\n[METRICS] BFS_TIME_END=1000\n"
	m := ParseMarkers(out, defaultOpts())
	require.NotNil(t, m.Window)
	assert.ErrorIs(t, m.Window.Validate(), types.ErrInvalidWindow)
}

func TestParseMarkersOtherTag(t *testing.T) {
	out := "[METRICS] MATRIX_TIME_START=10\n[METRICS] MATRIX_TIME_END=30\n"

	assert.Nil(t, ParseMarkers(out, defaultOpts()).Window)

	m := ParseMarkers(out, MarkerOptions{})
	require.NotNil(t, m.Window)
	assert.Equal(t, int64(20), m.Window.DurationMs())

	m = ParseMarkers(out, MarkerOptions{Tag: "MATRIX"})
	require.NotNil(t, m.Window)
}

func TestParseMarkersVerification(t *testing.T) {
	assert.Nil(t, ParseMarkers("done\n", defaultOpts()).Verified)

	failed := ParseMarkers("验证失败\n", defaultOpts())
	require.NotNil(t, failed.Verified)
	assert.False(t, *failed.Verified)

	both := ParseMarkers("验证成功\n验证失败\n", defaultOpts())
	require.NotNil(t, both.Verified)
	assert.False(t, *both.Verified)
}

func TestParseMarkersCRLF(t *testing.T) {
	out := "[METRICS] BFS_TIME_START=1000\r\n[METRICS] BFS_TIME_END=1100\r\nTime: 99 ms\r\n"
	m := ParseMarkers(out, defaultOpts())
	require.NotNil(t, m.Window)
	assert.Equal(t, int64(100), m.Window.DurationMs())
	assert.Equal(t, int64(99), m.ReportedTimeMs)
}
