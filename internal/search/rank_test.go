package search

import (
	"reflect"
	"storefront/internal/catalog/types"
	"testing"
)

func names(products []types.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func products(ns ...string) []types.Product {
	out := make([]types.Product, len(ns))
	for i, n := range ns {
		out[i] = types.Product{ID: types.ID(i + 1), Name: n}
	}
	return out
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := Tokenize("  Bàn  PHÍM\tCơ \n")
	want := []string{"bàn", "phím", "cơ"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %q, want %q", got, want)
	}
	if got := Tokenize("   "); len(got) != 0 {
		t.Fatalf("expected no tokens, got %q", got)
	}
}

func TestRank_BanPhim(t *testing.T) {
	t.Parallel()

	got := Rank("ban phim", products("Ban Phim Co", "Chuot Quang", "Ban Phim RGB"))
	want := []string{"Ban Phim Co", "Ban Phim RGB"}
	if !reflect.DeepEqual(names(got), want) {
		t.Fatalf("Rank = %q, want %q", names(got), want)
	}
}

func TestRank_DirectMatchBeforeTokenOverlap(t *testing.T) {
	t.Parallel()

	got := Rank("ban phim", products(
		"Phim Ban Gaming",   // tokens only
		"Bo Ban Phim Chuot", // direct at 3
		"Ban Phim Co",       // direct at 0
		"Banphim Mini",      // token containment only
	))
	want := []string{"Ban Phim Co", "Bo Ban Phim Chuot", "Phim Ban Gaming", "Banphim Mini"}
	if !reflect.DeepEqual(names(got), want) {
		t.Fatalf("Rank = %q, want %q", names(got), want)
	}
}

func TestRank_SymmetricContainment(t *testing.T) {
	t.Parallel()

	// "headset" contains the name token "head"; "pro" is contained in "prox".
	got := Rank("headset pro", products("Head Strap", "Prox Sensor", "Mouse Pad"))
	want := []string{"Head Strap", "Prox Sensor"}
	if !reflect.DeepEqual(names(got), want) {
		t.Fatalf("Rank = %q, want %q", names(got), want)
	}
}

func TestRank_DescriptionAndSpecificationMatches(t *testing.T) {
	t.Parallel()

	items := []types.Product{
		{ID: 1, Name: "Alpha", Description: "Wireless mechanical keyboard"},
		{ID: 2, Name: "Beta", Specification: "switch: MECHANICAL KEYBOARD red"},
		{ID: 3, Name: "Gamma", Description: "mouse"},
		{ID: 4, Description: "mechanical keyboard without a name"},
	}
	got := Rank("Mechanical Keyboard", items)
	if !reflect.DeepEqual(names(got), []string{"Alpha", "Beta"}) {
		t.Fatalf("unexpected ranking: %q", names(got))
	}
}

func TestRank_StableForTies(t *testing.T) {
	t.Parallel()

	got := Rank("pad", products("Mouse Pad XL", "Pad Mini", "Desk Pad", "Gamepad"))
	// direct indexes: 6, 0, 5, 4
	want := []string{"Pad Mini", "Gamepad", "Desk Pad", "Mouse Pad XL"}
	if !reflect.DeepEqual(names(got), want) {
		t.Fatalf("Rank = %q, want %q", names(got), want)
	}

	got = Rank("alpha beta", products("Beta One", "Alpha Two", "Gamma"))
	if !reflect.DeepEqual(names(got), []string{"Beta One", "Alpha Two"}) {
		t.Fatalf("expected token-only matches in input order, got %q", names(got))
	}
}

func TestRank_EmptyQueryKeepsOrder(t *testing.T) {
	t.Parallel()

	in := products("B", "A", "C")
	got := Rank("   ", in)
	if !reflect.DeepEqual(names(got), []string{"B", "A", "C"}) {
		t.Fatalf("unexpected ranking: %q", names(got))
	}
}

func TestEvaluate_Ratio(t *testing.T) {
	t.Parallel()

	s := Evaluate("ban phim rgb", Document{Name: "Ban Phim Co"})
	if s.MatchCount != 2 {
		t.Fatalf("MatchCount = %d, want 2", s.MatchCount)
	}
	if s.Ratio < 0.66 || s.Ratio > 0.67 {
		t.Fatalf("Ratio = %f, want 2/3", s.Ratio)
	}
	if s.DirectMatch() {
		t.Fatal("expected no direct match")
	}

	if s := Evaluate("", Document{Name: "Anything"}); s.Ratio != 0 || !s.Included {
		t.Fatalf("unexpected empty-query score: %+v", s)
	}
}
