package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAddress(t *testing.T) {
	tests := []struct {
		name    string
		network string
		address string
		valid   bool
	}{
		{name: "Valid TRON address", network: "TRON", address: "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8", valid: true},
		{name: "TRON address with wrong prefix", network: "TRON", address: "AJRabPrwbZy45sbavfcjinPJC18kjpRTv8", valid: false},
		{name: "TRON address too short", network: "TRON", address: "TJRabPrwbZy45", valid: false},
		{name: "Valid ETH address", network: "ETH", address: "0x52908400098527886E0F7030069857D2E4169EE7", valid: true},
		{name: "Valid BSC address", network: "BSC", address: "0x52908400098527886e0f7030069857d2e4169ee7", valid: true},
		{name: "EVM address without 0x", network: "POLYGON", address: "52908400098527886E0F7030069857D2E4169EE7", valid: false},
		{name: "EVM address with bad hex", network: "ETH", address: "0x52908400098527886E0F7030069857D2E4169EZZ", valid: false},
		{name: "Unknown network accepts base58-ish string", network: "SOLANA", address: "4Nd1mYvM6K7Jw9kYvM6K7Jw9kYvM6K7J", valid: true},
		{name: "Unknown network rejects empty", network: "SOLANA", address: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsAddress(tt.network, tt.address))
		})
	}
}
