package fps

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reported struct {
	kind  string
	value interface{}
}

func captureReports(t *testing.T) *[]reported {
	t.Helper()
	var got []reported
	SetReporter(func(kind string, value interface{}) {
		got = append(got, reported{kind, value})
	})
	t.Cleanup(func() { SetReporter(nil) })
	return &got
}

func TestCatalogValues(t *testing.T) {
	tests := []struct {
		rate      Rate
		str       string
		i         int64
		f         float64
		dropFrame bool
	}{
		{FPS24, "24 fps", 24, 24.0, false},
		{FPS25, "25 fps", 25, 25.0, false},
		{FPS30, "30 fps", 30, 30.0, false},
		{FPS29_97, "29.97 fps", 29, 29.97, false},
		{FPS29_97DF, "29.97 fps drop-frame", 29, 29.97, true},
		{FPS60, "60 fps", 60, 60.0, false},
		{None, "NONE", 0, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.rate.String())
			assert.Equal(t, tt.i, tt.rate.Int())
			assert.Equal(t, uint64(tt.i), tt.rate.Uint())
			assert.InDelta(t, tt.f, tt.rate.Float(), 1e-9)
			assert.Equal(t, tt.dropFrame, tt.rate.IsDropFrame())
			assert.True(t, tt.rate.Valid())
		})
	}
}

func TestDropFrameCatalogEntry(t *testing.T) {
	assert.Equal(t, 29.97, FPS29_97DF.Float())
	assert.Equal(t, int64(29), FPS29_97DF.Int())
	assert.True(t, FPS29_97DF.IsDropFrame())
	assert.Equal(t, "29.97 fps drop-frame", FPS29_97DF.String())
}

func TestDefault(t *testing.T) {
	assert.Equal(t, FPS25, Default())

	var zero Rate
	assert.Equal(t, Default(), zero)
}

func TestAllOrder(t *testing.T) {
	all := All()
	assert.Equal(t, []Rate{FPS24, FPS25, FPS30, FPS29_97, FPS29_97DF, FPS60}, all)

	all[0] = None
	assert.Equal(t, FPS24, All()[0], "All must return a copy")
}

func TestReverseLookups(t *testing.T) {
	reports := captureReports(t)

	assert.Equal(t, FPS24, FromInt(24))
	assert.Equal(t, FPS29_97, FromInt(29))
	assert.Equal(t, FPS29_97DF, FromInt(-29))
	assert.Equal(t, None, FromInt(0))

	assert.Equal(t, FPS60, FromFloat(60.0))
	assert.Equal(t, FPS29_97DF, FromFloat(-29.97))

	assert.Equal(t, FPS30, FromString("30 fps"))
	assert.Equal(t, FPS29_97DF, FromString("29.97 fps drop-frame"))
	assert.Equal(t, None, FromString("NONE"))

	assert.Equal(t, FPS29_97DF, FromDropFrame(true))
	assert.Equal(t, FPS24, FromDropFrame(false))

	assert.Empty(t, *reports)
}

func TestUnknownValuesAreReported(t *testing.T) {
	reports := captureReports(t)

	assert.Equal(t, None, FromInt(23))
	assert.Equal(t, None, FromFloat(23.976))
	assert.Equal(t, None, FromString("23.976 fps"))
	assert.Equal(t, "NONE", Rate(99).String())

	require.Len(t, *reports, 4)
	assert.Equal(t, reported{"int", int64(23)}, (*reports)[0])
	assert.Equal(t, reported{"float", 23.976}, (*reports)[1])
	assert.Equal(t, reported{"string", "23.976 fps"}, (*reports)[2])
	assert.Equal(t, "rate", (*reports)[3].kind)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Rate
		wantErr bool
	}{
		{"25 fps", FPS25, false},
		{"29.97 fps drop-frame", FPS29_97DF, false},
		{"24", FPS24, false},
		{"29.97", FPS29_97, false},
		{"29.97df", FPS29_97DF, false},
		{"29.97 DF", FPS29_97DF, false},
		{" 60 ", FPS60, false},
		{"NONE", None, false},
		{"23.976", None, true},
		{"fast", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextMarshaling(t *testing.T) {
	payload := struct {
		Rate Rate `json:"rate"`
	}{Rate: FPS29_97DF}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate":"29.97 fps drop-frame"}`, string(data))

	payload.Rate = FPS25
	require.NoError(t, json.Unmarshal([]byte(`{"rate":"60 fps"}`), &payload))
	assert.Equal(t, FPS60, payload.Rate)

	assert.Error(t, json.Unmarshal([]byte(`{"rate":"12 fps"}`), &payload))

	_, err = Rate(-1).MarshalText()
	assert.Error(t, err)
}
