package results

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationIsValid(t *testing.T) {
	for _, op := range Operations() {
		assert.True(t, op.IsValid(), "operation %q", op)
	}
	for _, op := range []Operation{"", "==", "between", "LIKE", "IN", "<>"} {
		assert.False(t, op.IsValid(), "operation %q", op)
	}
}

func TestFilterMarshal(t *testing.T) {
	body, err := json.Marshal(Filter{Field: "input.Ef", Operation: OpGreaterEquals, Value: 0.2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"field": "input.Ef", "operation": ">=", "value": 0.2}`, string(body))

	body, err = json.Marshal(Filter{Field: "input.Lg", Operation: OpIn, Value: []int{20, 45}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"field": "input.Lg", "operation": "in", "value": [20, 45]}`, string(body))
}

func TestFieldValueDecodeCurve(t *testing.T) {
	var v FieldValue
	require.NoError(t, json.Unmarshal([]byte(`{"xaxis": [0, 1, 2], "yaxis": [0, 0.5, 1]}`), &v))

	assert.Equal(t, CurveValue, v.Kind())
	curve, ok := v.Curve()
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2}, curve.XAxis)
	assert.Equal(t, []float64{0, 0.5, 1}, curve.YAxis)
	assert.Nil(t, v.Scalar())
}

func TestFieldValueDecodeScalar(t *testing.T) {
	tests := []struct {
		name string
		data string
		want any
	}{
		{"number", `0.25`, 0.25},
		{"string", `"2dfets/8/abc123"`, "2dfets/8/abc123"},
		{"bool", `true`, true},
		{"null", `null`, nil},
		{"array", `[1, 2]`, []any{1.0, 2.0}},
		// An object missing either axis stays a scalar.
		{"xaxis only", `{"xaxis": [0, 1]}`, map[string]any{"xaxis": []any{0.0, 1.0}}},
		{"non-numeric axes", `{"xaxis": "a", "yaxis": "b"}`, map[string]any{"xaxis": "a", "yaxis": "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v FieldValue
			require.NoError(t, json.Unmarshal([]byte(tt.data), &v))
			assert.Equal(t, ScalarValue, v.Kind())
			assert.Equal(t, tt.want, v.Scalar())

			curve, ok := v.Curve()
			assert.False(t, ok)
			assert.Nil(t, curve)
		})
	}
}

func TestFieldValueRoundTrip(t *testing.T) {
	for _, data := range []string{
		`{"xaxis":[0,1],"yaxis":[2,3]}`,
		`0.25`,
		`"text"`,
	} {
		var v FieldValue
		require.NoError(t, json.Unmarshal([]byte(data), &v))
		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, data, string(out))
	}
}

func TestFieldValueConstructors(t *testing.T) {
	s := Scalar(42)
	assert.Equal(t, ScalarValue, s.Kind())
	assert.Equal(t, 42, s.Scalar())

	c := CurveOf(Curve{XAxis: []float64{0}, YAxis: []float64{1}})
	assert.Equal(t, CurveValue, c.Kind())
	curve, ok := c.Curve()
	require.True(t, ok)
	assert.Equal(t, []float64{1}, curve.YAxis)
}

func TestRecordSquid(t *testing.T) {
	rec := Record{
		"squid":      Scalar("2dfets/8/abc123"),
		"output.f11": Scalar(1.5),
	}
	assert.Equal(t, "2dfets/8/abc123", rec.Squid())

	assert.Empty(t, Record{}.Squid())
	assert.Empty(t, Record{"squid": Scalar(42)}.Squid())
}

func TestResponseDecode(t *testing.T) {
	const body = `{
		"success": true,
		"results": [
			{"squid": "t/1/a", "output.f11": 0.5},
			{"squid": "t/1/b", "output.f41": {"xaxis": [0], "yaxis": [1]}}
		],
		"searchTime": 0.123
	}`

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, 0.123, resp.SearchTime)
	assert.Zero(t, resp.Code)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "t/1/a", resp.Results[0].Squid())
	_, isCurve := resp.Results[1]["output.f41"].Curve()
	assert.True(t, isCurve)
}
