// Package search ranks catalog items against a free-text query on the client.
// It is only used when the backend search endpoint cannot answer.
package search

import (
	"slices"
	"storefront/internal/catalog/types"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Document is the text of an item the ranker looks at.
type Document struct {
	Name          string
	Description   string
	Specification string
}

// Score is how one document matched a query.
type Score struct {
	MatchCount int
	Ratio      float64
	// NameIndex is the byte offset of the full query in the lowercased name,
	// or -1 when the name does not contain it.
	NameIndex int
	Included  bool
}

// DirectMatch reports whether the name contains the full query.
func (s Score) DirectMatch() bool {
	return s.NameIndex >= 0
}

func lower(s string) string {
	// Casers carry state, so one per call.
	return cases.Lower(language.Und).String(s)
}

// Tokenize lowercases s and splits it on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(lower(s))
}

// Evaluate scores doc against query. A query token matches when a name token
// contains it or it contains a name token, which tolerates partial and
// compound words.
func Evaluate(query string, doc Document) Score {
	if doc.Name == "" {
		return Score{NameIndex: -1}
	}

	q := lower(strings.TrimSpace(query))
	name := lower(doc.Name)
	queryTokens := strings.Fields(q)
	nameTokens := strings.Fields(name)

	matches := 0
	for _, qt := range queryTokens {
		if slices.ContainsFunc(nameTokens, func(nt string) bool {
			return strings.Contains(nt, qt) || strings.Contains(qt, nt)
		}) {
			matches++
		}
	}

	s := Score{MatchCount: matches, NameIndex: strings.Index(name, q)}
	if len(queryTokens) > 0 {
		s.Ratio = float64(matches) / float64(len(queryTokens))
	}
	s.Included = matches > 0 ||
		s.DirectMatch() ||
		strings.Contains(lower(doc.Description), q) ||
		strings.Contains(lower(doc.Specification), q)
	return s
}

// Result pairs an item with its score.
type Result[T any] struct {
	Item  T
	Score Score
}

// RankFunc filters items to those matching query and orders them: names
// containing the whole query first, earlier occurrences before later ones,
// and input order otherwise.
func RankFunc[T any](query string, items []T, doc func(T) Document) []Result[T] {
	results := make([]Result[T], 0, len(items))
	for _, item := range items {
		s := Evaluate(query, doc(item))
		if !s.Included {
			continue
		}
		results = append(results, Result[T]{Item: item, Score: s})
	}

	slices.SortStableFunc(results, func(a, b Result[T]) int {
		aDirect, bDirect := a.Score.DirectMatch(), b.Score.DirectMatch()
		switch {
		case aDirect && !bDirect:
			return -1
		case !aDirect && bDirect:
			return 1
		case aDirect && bDirect:
			return a.Score.NameIndex - b.Score.NameIndex
		default:
			return 0
		}
	})
	return results
}

// ProductDocument exposes the searchable text of a product.
func ProductDocument(p types.Product) Document {
	return Document{
		Name:          p.Name,
		Description:   p.Description,
		Specification: p.Specification,
	}
}

// Rank is RankFunc over products with the scores dropped.
func Rank(query string, products []types.Product) []types.Product {
	ranked := RankFunc(query, products, ProductDocument)
	out := make([]types.Product, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
	}
	return out
}
