// Package registry is the single source of truth mapping token symbols to
// contract addresses. Handlers and the background runner both resolve
// through it, so there is exactly one table to keep consistent.
package registry

import (
	"fmt"
	"sort"
	"strings"

	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
)

type Token struct {
	Symbol  string
	Address string
	ChainID uint64
}

// ID is the chain-qualified store key for the token.
func (t Token) ID() string {
	return fmt.Sprintf("%d:%s", t.ChainID, t.Address)
}

type Registry struct {
	bySymbol  map[string]Token
	byAddress map[string]Token
}

func NewRegistry(tokens []config.TokenConfig) *Registry {
	r := &Registry{
		bySymbol:  make(map[string]Token, len(tokens)),
		byAddress: make(map[string]Token, len(tokens)),
	}
	for _, t := range tokens {
		token := Token{
			Symbol:  strings.ToUpper(t.Symbol),
			Address: strings.ToLower(t.Address),
			ChainID: t.ChainID,
		}
		r.bySymbol[token.Symbol] = token
		r.byAddress[token.Address] = token
	}
	return r
}

// Tokens returns every registered token in symbol order.
func (r *Registry) Tokens() []Token {
	tokens := make([]Token, 0, len(r.bySymbol))
	for _, t := range r.bySymbol {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Symbol < tokens[j].Symbol
	})
	return tokens
}

// Resolve accepts either a token symbol (case-insensitive) or a 0x contract
// address.
func (r *Registry) Resolve(id string) (Token, error) {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(strings.ToLower(id), "0x") {
		if token, ok := r.byAddress[strings.ToLower(id)]; ok {
			return token, nil
		}
	} else if token, ok := r.bySymbol[strings.ToUpper(id)]; ok {
		return token, nil
	}
	return Token{}, fmt.Errorf("%q: %w", id, common.ErrTokenNotRecognized)
}
