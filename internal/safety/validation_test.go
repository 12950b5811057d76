package safety

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAsset(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.ValidateAsset("BTC").Valid)
	assert.True(t, v.ValidateAsset("usdt").Valid)
	assert.True(t, v.ValidateAsset(" ETH ").Valid)

	tests := []struct {
		asset string
		code  string
	}{
		{"", "ASSET_EMPTY"},
		{"   ", "ASSET_EMPTY"},
		{"B", "ASSET_TOO_SHORT"},
		{"AVERYLONGASSETNAMEXXX", "ASSET_TOO_LONG"},
		{"BTC/USDT", "ASSET_INVALID_CHARS"},
		{"BTC-PERP", "ASSET_INVALID_CHARS"},
	}
	for _, tt := range tests {
		result := v.ValidateAsset(tt.asset)
		assert.False(t, result.Valid, "asset %q", tt.asset)
		assert.Equal(t, tt.code, result.Code, "asset %q", tt.asset)
	}
}

func TestValidateAmount(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.ValidateAmount(100, "test").Valid)
	assert.True(t, v.ValidateAmount(0.00000001, "test").Valid)

	assert.Equal(t, "AMOUNT_NAN", v.ValidateAmount(math.NaN(), "test").Code)
	assert.Equal(t, "AMOUNT_INF", v.ValidateAmount(math.Inf(1), "test").Code)
	assert.Equal(t, "AMOUNT_NOT_POSITIVE", v.ValidateAmount(0, "test").Code)
	assert.Equal(t, "AMOUNT_NOT_POSITIVE", v.ValidateAmount(-5, "test").Code)
	assert.Equal(t, "AMOUNT_OUT_OF_BOUNDS", v.ValidateAmount(1e13, "test").Code)
}

func TestValidatePrice(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.ValidatePrice(40000, "BTC").Valid)
	assert.True(t, v.ValidatePrice(0.000001, "SHIB").Valid)

	assert.Equal(t, "PRICE_NAN", v.ValidatePrice(math.NaN(), "BTC").Code)
	assert.Equal(t, "PRICE_INF", v.ValidatePrice(math.Inf(-1), "BTC").Code)
	assert.Equal(t, "PRICE_NOT_POSITIVE", v.ValidatePrice(0, "BTC").Code)
	assert.Equal(t, "PRICE_OUT_OF_BOUNDS", v.ValidatePrice(1e11, "BTC").Code)
	assert.Equal(t, "PRICE_TOO_SMALL", v.ValidatePrice(1e-13, "BTC").Code)
}

func TestValidateSlippage(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.ValidateSlippage(0).Valid)
	assert.True(t, v.ValidateSlippage(3).Valid)
	assert.True(t, v.ValidateSlippage(50).Valid)

	assert.Equal(t, "SLIPPAGE_NAN", v.ValidateSlippage(math.NaN()).Code)
	assert.Equal(t, "SLIPPAGE_NEGATIVE", v.ValidateSlippage(-0.1).Code)
	assert.Equal(t, "SLIPPAGE_TOO_HIGH", v.ValidateSlippage(50.1).Code)
}

func TestValidateAccountID(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.ValidateAccountID("acct-1").Valid)
	assert.Equal(t, "ACCOUNT_ID_EMPTY", v.ValidateAccountID("").Code)
	assert.Equal(t, "ACCOUNT_ID_EMPTY", v.ValidateAccountID("  ").Code)
}

func TestSafeDivision(t *testing.T) {
	v := NewValidator()

	result, err := v.SafeDivision(10, 4)
	assert.NoError(t, err)
	assert.Equal(t, 2.5, result)

	_, err = v.SafeDivision(10, 0)
	assert.Error(t, err)

	_, err = v.SafeDivision(math.NaN(), 2)
	assert.Error(t, err)

	_, err = v.SafeDivision(math.Inf(1), 2)
	assert.Error(t, err)
}
