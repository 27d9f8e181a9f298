package indicator

import (
	"testing"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{
		"bias", "cci", "entropy", "rsi", "stoch", "stochcci", "stochrsi", "td", "turningpoints",
	}, Names())

	for _, name := range []string{"RSI", " stoch_rsi ", "Stoch_CCI", "turning_point", "TD"} {
		assert.True(t, IsSupported(name), name)
	}
	assert.False(t, IsSupported("macd"))
}

func TestBuild_EveryIndicatorKeepsLength(t *testing.T) {
	data := testColumns(120, 13)
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			ind, err := Build(Spec{Name: name})
			require.NoError(t, err)
			assert.Equal(t, name, ind.Name())

			frame, err := ind.Calculate(data)
			require.NoError(t, err)
			require.NotEmpty(t, frame.Columns)
			assert.Equal(t, data.Len(), frame.Len())
			for _, col := range frame.Columns {
				assert.Len(t, col.Values, data.Len(), col.Name)
			}
		})
	}
}

func TestBuild_OffsetShiftsEveryColumn(t *testing.T) {
	data := testColumns(120, 14)
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			spec := Spec{Name: name, Length: 6}
			if name == "td" {
				spec.Length = 0
			}
			plain, err := Build(spec)
			require.NoError(t, err)
			spec.Offset = 3
			shifted, err := Build(spec)
			require.NoError(t, err)

			want, err := plain.Calculate(data)
			require.NoError(t, err)
			got, err := shifted.Calculate(data)
			require.NoError(t, err)

			require.Len(t, got.Columns, len(want.Columns))
			for i, col := range got.Columns {
				assert.Equal(t, want.Columns[i].Name, col.Name)
				equalSeries(t, series.Shift(want.Columns[i].Values, 3), col.Values)
			}
		})
	}
}

func TestBuild_PassesParameters(t *testing.T) {
	data := testColumns(60, 15)
	tests := []struct {
		spec Spec
		name string
	}{
		{Spec{Name: "rsi", Length: 7}, "RSI_7"},
		{Spec{Name: "cci", Length: 10, C: 0.02}, "CCI_10_0.02"},
		{Spec{Name: "stoch", FastK: 9, FastD: 3, SlowD: 2}, "STOCH_9_3_2"},
		{Spec{Name: "stoch", Length: 10}, "STOCH_10_5_3"},
		{Spec{Name: "stoch", Length: 10, FastK: 12}, "STOCH_12_5_3"},
		{Spec{Name: "stoch_rsi", Length: 10, SmoothK: 2, SmoothD: 4}, "Stoch_RSI_2_4_10"},
		{Spec{Name: "stochcci", Length: 10}, "Stoch_CCI_3_3_10"},
		{Spec{Name: "bias", Length: 1}, "BIAS_30"},
		{Spec{Name: "entropy"}, "ENTROPY_10"},
		{Spec{Name: "turning_points", Length: 12}, "TURNINGPOINT_12"},
		{Spec{Name: "td"}, "TD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind, err := Build(tt.spec)
			require.NoError(t, err)
			frame, err := ind.Calculate(data)
			require.NoError(t, err)
			assert.Equal(t, tt.name, frame.Name)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(Spec{Name: "macd"})
	assert.ErrorContains(t, err, "unsupported indicator")

	_, err = Build(Spec{Name: "rsi", FillMethod: "interpolate"})
	assert.ErrorContains(t, err, "unknown fill method")

	_, err = Build(Spec{Name: "td", Length: 9})
	assert.ErrorContains(t, err, "takes no length")

	_, err = Build(Spec{Name: "stoch", FastK: 3, FastD: 3})
	assert.ErrorContains(t, err, "two STOCHF_3 columns")

	_, err = Build(Spec{Name: "stoch", Length: 5})
	assert.ErrorContains(t, err, "fast_k and fast_d are both 5")

	ind, err := Build(Spec{Name: "rsi"})
	require.NoError(t, err)
	_, err = ind.Calculate(candle.Columns{})
	require.Error(t, err)
	assert.ErrorIs(t, err, series.ErrInvalidInput)
	assert.Contains(t, err.Error(), "rsi: ")
}

func TestBuildAll(t *testing.T) {
	inds, err := BuildAll([]Spec{{Name: "rsi"}, {Name: "td"}})
	require.NoError(t, err)
	require.Len(t, inds, 2)
	assert.Equal(t, "rsi", inds[0].Name())
	assert.Equal(t, "td", inds[1].Name())

	_, err = BuildAll([]Spec{{Name: "rsi"}, {Name: "nope"}})
	assert.Error(t, err)
}

func TestSpec_Options(t *testing.T) {
	zero := 0.0

	opts, err := Spec{Offset: 2}.Options()
	require.NoError(t, err)
	assert.Equal(t, series.Options{Offset: 2}, opts)

	opts, err = Spec{Fillna: &zero, FillMethod: "ffill"}.Options()
	require.NoError(t, err)
	assert.Equal(t, series.FillWith(0), opts.Fill)

	for method, kind := range map[string]series.FillKind{
		"ffill":    series.FillForward,
		"pad":      series.FillForward,
		"bfill":    series.FillBackward,
		"BACKFILL": series.FillBackward,
	} {
		opts, err := Spec{FillMethod: method}.Options()
		require.NoError(t, err, method)
		assert.Equal(t, kind, opts.Fill.Kind, method)
	}

	_, err = Spec{FillMethod: "linear"}.Options()
	assert.Error(t, err)
}
