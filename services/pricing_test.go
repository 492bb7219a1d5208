package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticPricer(t *testing.T) {
	p := NewStaticPricer(map[string]float64{"eth": 3000, "USDT": 1}, 50000)

	usd, err := p.USDVolume("ETH", 1.5)
	require.NoError(t, err)
	assert.Equal(t, 4500.0, usd)

	usd, err = p.USDVolume("usdt", 20)
	require.NoError(t, err)
	assert.Equal(t, 20.0, usd)

	usd, err = p.USDVolume("DOGE", 0.0004)
	require.NoError(t, err)
	assert.Equal(t, 20.0, usd)

	_, err = p.USDVolume("BTC", -1)
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 0.0125 ")
	require.NoError(t, err)
	assert.Equal(t, "0.0125", d.String())

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}
