package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumMatchesEIP55Vectors(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, want := range vectors {
		got, err := Checksum(strings.ToLower(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)

		got, err = Checksum(strings.ToUpper(want[2:]))
		assert.ErrorIs(t, err, ErrInvalidAddress, "missing 0x prefix")
		assert.Empty(t, got)
	}
}

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0x742d35Cc6639C0532fEb42387b22e3f0a1dd9527"))
	assert.False(t, IsValidAddress("0x8ba1f109551bD432803012645Hac136c4c0a5070"), "non-hex character")
	assert.False(t, IsValidAddress("0x742d35"))
	assert.False(t, IsValidAddress(""))
}

func TestNormalizeAndEqual(t *testing.T) {
	raw := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", Normalize(raw))
	assert.Equal(t, "not-a-wallet", Normalize(" not-a-wallet "))
	assert.True(t, Equal(raw, "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"))
}

func TestTransactionHash(t *testing.T) {
	hash := "0x" + strings.Repeat("AB", 32)
	normalized, err := NormalizeTransactionHash(hash)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(hash), normalized)

	_, err = NormalizeTransactionHash("0x1234")
	assert.ErrorIs(t, err, ErrInvalidTransactionHash)
}
