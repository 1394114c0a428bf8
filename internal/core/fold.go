package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s case-folded with diacritics removed and whitespace collapsed,
// so "  Devolución " and "DEVOLUCION" compare equal.
//
// Transformers and casers carry state, so a fresh chain is built per call.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}

	folded := cases.Fold().String(stripped)
	return strings.Join(strings.Fields(folded), " ")
}

// foldKey folds a header for lookup and also treats '_' and '-' as spaces,
// so "Valor_Compra" matches "valor compra".
func foldKey(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return Fold(s)
}
