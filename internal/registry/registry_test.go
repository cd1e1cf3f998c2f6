package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
)

func newTestRegistry() *Registry {
	return NewRegistry([]config.TokenConfig{
		{Symbol: "shib", Address: "0x95aD61b0a150d79219dCF64E1E6Cc01f0B64C4cE", ChainID: 1},
		{Symbol: "PEPE", Address: "0x6982508145454ce325ddbe47a25d4ec3d2311933", ChainID: 1},
	})
}

func TestResolve_BySymbolCaseInsensitive(t *testing.T) {
	r := newTestRegistry()

	for _, ref := range []string{"SHIB", "shib", "Shib"} {
		token, err := r.Resolve(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "SHIB", token.Symbol)
		assert.Equal(t, "0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce", token.Address)
	}
}

func TestResolve_ByAddressCaseInsensitive(t *testing.T) {
	r := newTestRegistry()

	token, err := r.Resolve("0x95AD61B0A150D79219DCF64E1E6CC01F0B64C4CE")
	require.NoError(t, err)
	assert.Equal(t, "SHIB", token.Symbol)

	token, err = r.Resolve(" 0x6982508145454ce325ddbe47a25d4ec3d2311933 ")
	require.NoError(t, err)
	assert.Equal(t, "PEPE", token.Symbol)
}

func TestResolve_UnknownToken(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Resolve("DOGE")
	assert.ErrorIs(t, err, common.ErrTokenNotRecognized)

	_, err = r.Resolve("0x0000000000000000000000000000000000000042")
	assert.ErrorIs(t, err, common.ErrTokenNotRecognized)

	_, err = r.Resolve("")
	assert.ErrorIs(t, err, common.ErrTokenNotRecognized)
}

func TestTokens_SortedBySymbol(t *testing.T) {
	r := newTestRegistry()

	tokens := r.Tokens()
	require.Len(t, tokens, 2)
	assert.Equal(t, "PEPE", tokens[0].Symbol)
	assert.Equal(t, "SHIB", tokens[1].Symbol)
}

func TestTokenID_ChainQualified(t *testing.T) {
	token := Token{Symbol: "SHIB", Address: "0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce", ChainID: 1}
	assert.Equal(t, "1:0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce", token.ID())
}
