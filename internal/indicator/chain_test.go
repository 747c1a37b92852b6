package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VnPanel/internal/calculator"
	"VnPanel/internal/panel"
)

func TestNewChain_Errors(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  error
	}{
		{"unknown", []Step{{Name: "stochastic"}}, ErrUnknownIndicator},
		{"missing lookback", []Step{{Name: "rsi"}}, ErrMissingParameter},
		{"unknown param", []Step{{Name: "rsi", Params: map[string]int{"lookback": 14, "window": 3}}}, ErrUnknownParameter},
		{"param on fixed", []Step{{Name: "obv", Params: map[string]int{"lookback": 3}}}, ErrUnknownParameter},
		{"zero lookback", []Step{{Name: "rsi", Params: map[string]int{"lookback": 0}}}, ErrBadParameter},
		{"negative lookback", []Step{{Name: "rsi", Params: map[string]int{"lookback": -3}}}, ErrBadParameter},
		{"zero ppo fast", []Step{{Name: "ppo", Params: map[string]int{"fast": 0}}}, ErrBadParameter},
		{"zero bbands lookback", []Step{{Name: "bbands", Params: map[string]int{"lookback": 0}}}, calculator.ErrParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChain(tt.steps)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestNewChain_UnknownListsKnown(t *testing.T) {
	_, err := NewChain([]Step{{Name: "stoch"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown indicator "stoch" (known: acc_dist, bbands, cci,`)
}

func TestChain_ApplyPropagatesParameterError(t *testing.T) {
	// NewChain refuses lookback 0, so build the chain by hand.
	rsi := Step{Name: "rsi", Params: map[string]int{"lookback": 0}}
	c := &Chain{steps: []resolvedStep{
		{step: Step{Name: "ma", Params: map[string]int{"lookback": 2}}, def: registry["ma"], params: map[string]int{"lookback": 2}},
		{step: rsi, def: registry["rsi"], params: rsi.Params},
	}}
	_, err := c.Apply(closesPanel("A", 1, 2, 3))
	assert.ErrorIs(t, err, calculator.ErrParameter)
	assert.Contains(t, err.Error(), "step 1 rsi(lookback=0)")
}

func TestChain_ApplyValidatesInput(t *testing.T) {
	_, err := DefaultChain().Apply(closesPanel("A", 1, 2, 3).Without(panel.Volume))
	assert.ErrorIs(t, err, panel.ErrInputShape)
}

func TestDefaultChain_Columns(t *testing.T) {
	c := DefaultChain()
	p := mustConcat(t, wavePanel("A", 120, 0), wavePanel("B", 40, 7))
	out, err := c.Apply(p)
	require.NoError(t, err)

	want := append([]string{}, panel.BaseColumns...)
	want = append(want, c.Columns()...)
	assert.Equal(t, want, out.Columns())
	for _, name := range []string{"ma_100", "rsi_25", "natr_20", "OBV", "acc_dist_line", "20_day_wr",
		"triple_ema", "roc_80", "ppo_hist", "ppo_signal_9_20_9", "mfi_14", "macd_h", "chande_mo_14",
		"cci_28", "disparity_index_100", "upper_b30", "lower_b10"} {
		assert.Contains(t, want, name)
	}
}

func TestDefaultChain_NoLeakageAcrossTickers(t *testing.T) {
	a := wavePanel("A", 120, 0)
	b := wavePanel("B", 40, 7)
	c := DefaultChain()

	joint, err := c.Apply(mustConcat(t, a, b))
	require.NoError(t, err)
	aloneA, err := c.Apply(a)
	require.NoError(t, err)
	aloneB, err := c.Apply(b)
	require.NoError(t, err)

	for _, name := range c.Columns() {
		assertSeries(t, column(t, aloneA, name), column(t, joint.Slice("A"), name))
		assertSeries(t, column(t, aloneB, name), column(t, joint.Slice("B"), name))
	}
}

func TestExpand(t *testing.T) {
	steps := Expand("ppo", nil, map[string]int{"fast": 5})
	assert.Equal(t, []Step{{Name: "ppo", Params: map[string]int{"fast": 5}}}, steps)

	steps = Expand("rsi", []int{10, 20}, nil)
	assert.Equal(t, []Step{
		{Name: "rsi", Params: map[string]int{"lookback": 10}},
		{Name: "rsi", Params: map[string]int{"lookback": 20}},
	}, steps)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "obv", Step{Name: "obv"}.String())
	assert.Equal(t, "ppo(fast=9,signal=9,slow=20)",
		Step{Name: "ppo", Params: map[string]int{"fast": 9, "slow": 20, "signal": 9}}.String())
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(registry))
	assert.Contains(t, names, "bbands")
	assert.IsIncreasing(t, names)
}
