package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountScan(t *testing.T) {
	cases := []struct {
		name      string
		src       interface{}
		want      float64
		malformed bool
	}{
		{"null", nil, 0, false},
		{"float", 12.5, 12.5, false},
		{"int", int64(40), 40, false},
		{"numeric text", []byte("1500.75"), 1500.75, false},
		{"blank text", "  ", 0, false},
		{"garbage", "12,000", 0, true},
		{"nan", math.NaN(), 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var a Amount
			require.NoError(t, a.Scan(tc.src))
			assert.Equal(t, tc.want, a.Float64)
			assert.Equal(t, tc.malformed, a.Malformed())
		})
	}
}

func TestAmountUnmarshalJSON(t *testing.T) {
	var body struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 10.5, "b": "20", "c": null}`), &body))
	assert.Equal(t, 10.5, body.A.Float64)
	assert.Equal(t, 20.0, body.B.Float64)
	assert.Zero(t, body.C.Float64)

	var bad Amount
	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &bad))
}

func TestDateScanAndJSON(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-09", d.String())

	require.NoError(t, d.Scan("2024-02-29T00:00:00Z"))
	assert.Equal(t, "2024-02-29", d.String())

	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-05"`), &parsed))
	v, err := parsed.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", v)

	assert.Error(t, json.Unmarshal([]byte(`"05/01/2024"`), &parsed))
}

func TestExpiringDocuments(t *testing.T) {
	day := func(s string) *Date {
		d, err := ParseDate(s)
		require.NoError(t, err)
		return &d
	}
	v := Vehicle{
		InsuranceExpiry:  day("2024-03-20"),
		TLBExpiry:        day("2024-03-01"), // already lapsed
		InspectionExpiry: day("2024-05-01"),
	}
	today := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	docs := v.ExpiringDocuments(today, 30)
	require.Len(t, docs, 1)
	assert.Equal(t, "insurance", docs[0].Document)
	assert.Equal(t, 10, docs[0].DaysLeft)

	assert.Len(t, v.ExpiringDocuments(today, 60), 2)
	assert.Empty(t, Vehicle{}.ExpiringDocuments(today, 30))
}

func TestTripTimestampFallback(t *testing.T) {
	start := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	assert.Equal(t, start, Trip{StartTime: &start, EndTime: &end}.Timestamp())
	assert.Equal(t, end, Trip{EndTime: &end}.Timestamp())
	assert.True(t, Trip{}.Timestamp().IsZero())

	collected := end.Add(time.Hour)
	assert.Equal(t, collected, Trip{CollectionTime: collected, StartTime: &start}.Timestamp())
}

func TestStatusValidation(t *testing.T) {
	assert.True(t, TripCancelled.Valid())
	assert.False(t, TripStatus("parked").Valid())
	assert.True(t, VehicleMaintenance.Valid())
	assert.False(t, DeficitType("loan").Valid())
}
