package insight

import (
	"testing"

	"github.com/stretchr/testify/require"

	"operators-vault-go/internal/types"
)

func TestParseQuoteAndColonForms(t *testing.T) {
	in := "Quotes:\n* \"Do the work\" – Jane Doe\n---\nBusiness ideas:\n* Idea A: do X\n"
	got := Parse(in)
	require.Equal(t, []types.ParsedInsight{
		{Category: "Quotes", Title: "Jane Doe", Description: "Do the work"},
		{Category: "Business ideas", Title: "Idea A", Description: "do X"},
	}, got)
}

func TestParseNoneBlockYieldsNothing(t *testing.T) {
	require.Empty(t, Parse("Products:\n(none)\n"))
}

func TestParseMultipleCategoriesOneBlock(t *testing.T) {
	in := `Frameworks and exercises:
* The 4-quadrant audit: Map every SKU by margin and velocity
* Weekly teardown: Review one competitor ad per week

Stories and anecdotes:
* How they lost $200k on a single PO
`
	got := Parse(in)
	require.Len(t, got, 3)
	require.Equal(t, "Frameworks and exercises", got[0].Category)
	require.Equal(t, "The 4-quadrant audit", got[0].Title)
	require.Equal(t, "Map every SKU by margin and velocity", got[0].Description)
	require.Equal(t, "Stories and anecdotes", got[2].Category)
	require.Equal(t, "How they lost $200k on a single PO", got[2].Title)
	require.Empty(t, got[2].Description)
}

func TestParseLeadingTrailingSeparatorsStripped(t *testing.T) {
	in := "---\nQuotes:\n* \"Ship it\" - Sam\n---"
	got := Parse(in)
	require.Len(t, got, 1)
	require.Equal(t, "Sam", got[0].Title)
	require.Equal(t, "Ship it", got[0].Description)
}

func TestParseMalformedQuoteFallsBackToColonSplit(t *testing.T) {
	// Unterminated quote: fails the quote form, splits on ": " instead.
	in := "Quotes:\n* \"Broken quote: no closing dash part\n"
	got := Parse(in)
	require.Len(t, got, 1)
	require.Equal(t, `"Broken quote`, got[0].Title)
	require.Equal(t, "no closing dash part", got[0].Description)
}

func TestParseWholeLineFallback(t *testing.T) {
	in := "Products:\n* TripleWhale\n"
	got := Parse(in)
	require.Equal(t, []types.ParsedInsight{{Category: "Products", Title: "TripleWhale"}}, got)
}

func TestParseLegacyHeaderlessBlock(t *testing.T) {
	in := "Business ideas\n* Subscription box for samples: Test demand cheaply\n"
	got := Parse(in)
	require.Len(t, got, 1)
	require.Equal(t, "Business ideas", got[0].Category)
	require.Equal(t, "Subscription box for samples", got[0].Title)
}

func TestParsePreservesOrderAndDuplicates(t *testing.T) {
	in := "Quotes:\n* \"Same\" – A\n* \"Same\" – A\n"
	got := Parse(in)
	require.Len(t, got, 2)
	require.Equal(t, got[0], got[1])
}

func TestParseCategoryWithoutBulletsProducesNothing(t *testing.T) {
	require.Empty(t, Parse("Products:\n\nQuotes:\n"))
}

func TestParseSkipsBlankAndNonBulletLines(t *testing.T) {
	in := "Quotes:\n\nsome stray commentary\n* \"Keep going\" – Ben\n"
	got := Parse(in)
	require.Len(t, got, 1)
	require.Equal(t, "Ben", got[0].Title)
}

func TestParseEmptyInput(t *testing.T) {
	require.Empty(t, Parse(""))
	require.Empty(t, Parse("---\n---"))
}
