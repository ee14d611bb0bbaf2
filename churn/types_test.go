package churn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSONKeepsZero(t *testing.T) {
	data, err := json.Marshal(Record{Columns: []string{ColTenure}, Values: []Value{Number(0)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":["tenure"],"values":[{"num":0,"isNum":true}]}`, string(data))
}
