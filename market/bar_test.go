package market

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Bar{Open: 1.0, High: 1.2, Low: 0.9, Close: 1.1}.Valid())
	assert.True(t, Bar{Open: 1.0, High: 1.0, Low: 1.0, Close: 1.0}.Valid())
	assert.False(t, Bar{Open: 1.0, High: 1.05, Low: 0.9, Close: 1.1}.Valid())
	assert.False(t, Bar{Open: 1.0, High: 1.2, Low: 1.01, Close: 1.1}.Valid())
}

func TestSideText(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		Side Side `json:"side"`
	}{Sell})
	require.NoError(t, err)
	assert.JSONEq(t, `{"side":"SELL"}`, string(b))

	var out struct {
		Side Side `json:"side"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"side":"buy"}`), &out))
	assert.Equal(t, Buy, out.Side)

	_, err = ParseSide("sideways")
	assert.Error(t, err)
	_, err = Side(0).MarshalText()
	assert.Error(t, err)
}

func TestTimeframes(t *testing.T) {
	t.Parallel()

	sec, err := TFStringToSeconds("M5")
	require.NoError(t, err)
	assert.Equal(t, int64(300), sec)

	s, err := SecondsToTFString(14400)
	require.NoError(t, err)
	assert.Equal(t, "H4", s)

	_, err = TFStringToSeconds("M7")
	assert.Error(t, err)

	ts := time.Date(2024, 1, 1, 10, 7, 31, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC).Unix(), AlignTime(ts, 300))
}
