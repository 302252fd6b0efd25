package multivalue

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"catalogetl/internal/dataset"
)

// listSyntax is the bracket and quote punctuation of a list literal such as
// "['drama', 'comedy']". It is removed wherever it appears in the cell.
var listSyntax = strings.NewReplacer("[", "", "]", "", "'", "", `"`, "")

// ParseList tokenizes a list literal: bracket and quote characters are
// stripped, the remainder is split on commas, and each token is trimmed and
// NFC-normalized. Empty tokens are dropped, so "[]" and "" yield nil.
func ParseList(raw string) []string {
	body := listSyntax.Replace(raw)
	if strings.TrimSpace(body) == "" {
		return nil
	}
	parts := strings.Split(body, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if tok := clean(p); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// ScalarToken treats raw as a single value. Names such as "Mike O'Brien" or
// "Smith, Jr." keep their punctuation.
func ScalarToken(raw string) []string {
	if tok := clean(raw); tok != "" {
		return []string{tok}
	}
	return nil
}

// ParseListColumn converts a string column of list literals into a string-list
// column using ParseList.
func ParseListColumn(ds *dataset.Dataset, column string) (*dataset.Dataset, error) {
	return ds.MapToList(column, ParseList)
}

// ScalarListColumn converts a string column into a string-list column holding
// at most one token per row.
func ScalarListColumn(ds *dataset.Dataset, column string) (*dataset.Dataset, error) {
	return ds.MapToList(column, ScalarToken)
}

func clean(tok string) string {
	return norm.NFC.String(strings.TrimSpace(tok))
}
