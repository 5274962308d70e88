// Package gemini counts tokens of crawled content with the local Gemini
// tokenizer.
package gemini

import (
	"context"

	"github.com/fwojciec/spewder"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// DefaultModel is the model whose tokenizer is used when none is given.
const DefaultModel = "gemini-2.0-flash"

var _ spewder.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens using the Gemini tokenizer.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, spewder.Errorf(spewder.EINVALID, "tokenizer for %s: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := tc.tok.CountTokens(contents, nil)
	if err != nil {
		return 0, err
	}

	return int(result.TotalTokens), nil
}
