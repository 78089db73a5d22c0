package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test looking up values succeeds, then fails
func TestLookup(t *testing.T) {
	for key, val := range keywords {
		require.Equal(t, val, LookupIdentifier(key), key)
		// Once the keywords are uppercase they'll no longer
		// match - so we find them as identifiers.
		require.Equal(t, Type(IDENT), LookupIdentifier(strings.ToUpper(key)), key)
	}
}

func TestLookupNearMisses(t *testing.T) {
	for _, word := range []string{"", "e", "en", "ends", "functions", "localx", "whilst", "nul"} {
		require.Equal(t, Type(IDENT), LookupIdentifier(word), word)
	}
}

func TestKeywordText(t *testing.T) {
	text, ok := KeywordText(ELSEIF)
	require.True(t, ok)
	require.Equal(t, "elseif", text)
	require.True(t, IsKeyword(FOREACH))
	require.False(t, IsKeyword(IDENT))
	_, ok = KeywordText(PLUS)
	require.False(t, ok)
}

func TestPosition(t *testing.T) {
	tok := Token{
		Type:    IDENT,
		Literal: "foo",
		StartPosition: Position{
			Line:   2,
			Column: 0,
		},
	}
	// Switches to 1-indexed
	require.Equal(t, 3, tok.StartPosition.LineNumber())
	require.Equal(t, 1, tok.StartPosition.ColumnNumber())

	end := tok.StartPosition.Advance(3)
	require.Equal(t, 3, end.Char)
	require.Equal(t, 3, end.Column)
	require.Equal(t, 2, end.Line)
	require.False(t, NoPos.IsValid())
	require.True(t, end.IsValid())
}
