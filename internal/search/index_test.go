package search

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type boomReader struct{}

func (boomReader) Read(_ []byte) (int, error) { return 0, errors.New("boom") }

func catalogDocs() []Doc {
	return []Doc{
		{ID: "1", Text: "Hermes Birkin sumka qora charm"},
		{ID: "2", Text: "Chanel Classic Flap sumka"},
		{ID: "3", Text: "Rolex Submariner soat"},
		{ID: "4", Text: "   "},
	}
}

func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.minRunes != 0 || def.stopwords != nil || def.maxDocs != 0 || def.prefixRunes != 3 {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}
	cfg := def
	WithMinRunes(10)(&cfg)
	WithMinRunes(-1)(&cfg)
	WithMaxDocs(2)(&cfg)
	WithMaxDocs(0)(&cfg)
	WithPrefixMatch(0)(&cfg)
	WithStopwords([]string{" Va ", ""})(&cfg)
	if cfg.minRunes != 10 || cfg.maxDocs != 2 || cfg.prefixRunes != 0 {
		t.Fatalf("options not applied: %#v", cfg)
	}
	if _, ok := cfg.stopwords["va"]; !ok {
		t.Fatalf("stopword missing: %#v", cfg.stopwords)
	}
	cfg2 := def
	WithStopwords(nil)(&cfg2)
	if cfg2.stopwords != nil {
		t.Fatalf("empty stopwords should stay nil")
	}
}

func TestNewIndex_SkipsBlankAndCaps(t *testing.T) {
	if n := NewIndex(catalogDocs()).Len(); n != 3 {
		t.Fatalf("Len = %d; want 3", n)
	}
	if n := NewIndex(catalogDocs(), WithMaxDocs(2)).Len(); n != 2 {
		t.Fatalf("Len with cap = %d; want 2", n)
	}
	if n := NewIndex(catalogDocs(), WithMinRunes(25)).Len(); n != 2 {
		t.Fatalf("Len with min runes = %d; want 2", n)
	}
}

func TestTopK_RanksAndIDs(t *testing.T) {
	idx := NewIndex(catalogDocs())

	res := idx.TopK("sumka", 5)
	if len(res) != 2 {
		t.Fatalf("want 2 bags, got %+v", res)
	}
	// Fewer tokens, higher Jaccard score.
	if res[0].ID != "2" || res[1].ID != "1" {
		t.Fatalf("order = %s,%s", res[0].ID, res[1].ID)
	}
	if res[0].Score <= res[1].Score {
		t.Fatalf("scores not descending: %+v", res)
	}

	if got := idx.TopK("rolex", 1); len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("rolex: %+v", got)
	}
	if got := idx.TopK("sumka", 1); len(got) != 1 {
		t.Fatalf("k not applied: %+v", got)
	}
}

func TestTopK_PrefixMatch(t *testing.T) {
	idx := NewIndex(catalogDocs())
	if got := idx.TopK("subm", 3); len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("prefix: %+v", got)
	}
	// Too short for a prefix hit.
	if got := idx.TopK("su", 3); got != nil {
		t.Fatalf("short prefix should not match: %+v", got)
	}
	off := NewIndex(catalogDocs(), WithPrefixMatch(0))
	if got := off.TopK("subm", 3); got != nil {
		t.Fatalf("prefix disabled: %+v", got)
	}
}

func TestTopK_EmptyCases(t *testing.T) {
	idx := NewIndex(catalogDocs(), WithStopwords([]string{"va"}))
	if idx.TopK("", 3) != nil || idx.TopK("   ", 3) != nil {
		t.Fatalf("blank query should return nil")
	}
	if idx.TopK("va", 3) != nil {
		t.Fatalf("stopword-only query should return nil")
	}
	if idx.TopK("telefon", 3) != nil {
		t.Fatalf("no overlap should return nil")
	}
	if NewIndex(nil).TopK("sumka", 3) != nil {
		t.Fatalf("empty index should return nil")
	}
	if got := idx.TopK("sumka", 0); len(got) != 2 {
		t.Fatalf("k<=0 defaults to 3: %+v", got)
	}
}

func TestTopK_TieBreakByLengthThenID(t *testing.T) {
	idx := NewIndex([]Doc{
		{ID: "b", Text: "oltin uzuk"},
		{ID: "a", Text: "oltin soatlar"},
		{ID: "c", Text: "oltin bilaguzuk katta"},
	}, WithPrefixMatch(0))
	got := idx.TopK("oltin", 3)
	if len(got) != 3 || got[0].ID != "b" || got[1].ID != "a" || got[2].ID != "c" {
		t.Fatalf("tie-break: %+v", got)
	}
}

func TestTokenize(t *testing.T) {
	toks := tokenize("O'zbekiston, Toshkent-2026!", nil)
	for _, w := range []string{"o'zbekiston", "toshkent", "2026"} {
		if _, ok := toks[w]; !ok {
			t.Fatalf("missing %q in %v", w, toks)
		}
	}
	if tokenize("!!!", nil) != nil {
		t.Fatalf("punctuation only should be nil")
	}
	if tokenize("va", map[string]struct{}{"va": {}}) != nil {
		t.Fatalf("all stopwords should be nil")
	}
	if got := normalizeWhitespace("a \t\n b"); got != "a b" {
		t.Fatalf("normalizeWhitespace = %q", got)
	}
}

func TestNewIndexFromMarkdown(t *testing.T) {
	p := filepath.Join(t.TempDir(), "faq.md")
	md := "# Yetkazib berish\nToshkent bo'ylab 1 kun ichida.\n\n| Shahar | Muddat |\n|---|---|\n| Samarqand | 2 kun |\n"
	if err := os.WriteFile(p, []byte(md), 0o600); err != nil {
		t.Fatal(err)
	}
	idx, err := NewIndexFromMarkdown(p)
	if err != nil {
		t.Fatalf("NewIndexFromMarkdown: %v", err)
	}
	got := idx.TopK("samarqand", 1)
	if len(got) != 1 || got[0].ID != "p3" || got[0].Snippet != "Samarqand 2 kun" {
		t.Fatalf("got %+v", got)
	}

	if _, err := NewIndexFromMarkdown(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Fatalf("missing file should error")
	}
	idx, err = NewIndexFromReader(boomReader{})
	if err == nil || idx == nil || idx.Len() != 0 {
		t.Fatalf("reader error should return empty index and error")
	}
	if _, err := NewIndexFromReader(strings.NewReader("")); err != nil {
		t.Fatalf("empty reader: %v", err)
	}
}
