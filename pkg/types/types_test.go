package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPhaseWindowValidate(t *testing.T) {
	assert.NoError(t, PhaseWindow{Start: 1, End: 1}.Validate())
	assert.NoError(t, PhaseWindow{Start: 1, End: 2}.Validate())
	assert.ErrorIs(t, PhaseWindow{Start: 2, End: 1}.Validate(), ErrInvalidWindow)
	assert.ErrorIs(t, PhaseWindow{Start: math.NaN(), End: 1}.Validate(), ErrInvalidWindow)
}

func TestPhaseWindowContainsInclusive(t *testing.T) {
	w := PhaseWindow{Start: 1.0, End: 1.5}
	assert.True(t, w.Contains(1.0))
	assert.True(t, w.Contains(1.5))
	assert.True(t, w.Contains(1.2))
	assert.False(t, w.Contains(0.999))
	assert.False(t, w.Contains(1.501))
	assert.Equal(t, int64(500), w.DurationMs())
}

func TestCacheCountersDeriveRatios(t *testing.T) {
	c := CacheCounters{L1Miss: 100, LLCMiss: 25, Instructions: 1000}
	c.DeriveRatios()
	assert.InDelta(t, 0.9, c.L1HitRatio, 1e-9)
	assert.InDelta(t, 0.75, c.LLCHitRatio, 1e-9)

	zero := CacheCounters{}
	zero.DeriveRatios()
	assert.Zero(t, zero.L1HitRatio)
	assert.Zero(t, zero.LLCHitRatio)

	// more misses than instructions clamps at zero
	odd := CacheCounters{L1Miss: 2000, LLCMiss: 10, Instructions: 1000}
	odd.DeriveRatios()
	assert.Zero(t, odd.L1HitRatio)
}

func TestOptionalPercentJSON(t *testing.T) {
	type wrapper struct {
		A OptionalPercent `json:"a"`
		B OptionalPercent `json:"b"`
	}
	data, err := json.Marshal(wrapper{A: Percent(42.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":42.5,"b":"N/A"}`, string(data))

	var back wrapper
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Percent(42.5), back.A)
	assert.False(t, back.B.Valid)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"lots"}`), &back))
}

func TestOptionalPercentYAML(t *testing.T) {
	type wrapper struct {
		A OptionalPercent `yaml:"a"`
		B OptionalPercent `yaml:"b"`
	}
	data, err := yaml.Marshal(wrapper{A: Percent(10)})
	require.NoError(t, err)
	assert.Contains(t, string(data), "b: N/A")

	var back wrapper
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, Percent(10), back.A)
	assert.False(t, back.B.Valid)
}

func TestOptionalPercentString(t *testing.T) {
	assert.Equal(t, "N/A", OptionalPercent{}.String())
	assert.Equal(t, "12.3%", Percent(12.34).String())
}
