// Package search is a small in-memory index used for catalog search in the
// bot and for grounding assistant answers in the store's help text.
//
// Documents carry an ID so callers can map hits back to products or
// knowledge paragraphs. Scoring is Jaccard similarity between the query
// token set and the document token set, with a prefix bonus so partial words
// typed in a chat ("sumk" for "sumka") still match. An index is immutable
// after construction and safe for concurrent use.
package search

import (
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Doc is one searchable document.
type Doc struct {
	ID   string
	Text string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID      string
	Snippet string
	Score   float64
}

// Index is implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// Option tunes index construction.
type Option func(*config)

type config struct {
	minRunes    int
	stopwords   map[string]struct{}
	maxDocs     int
	prefixRunes int
}

func defaultConfig() config {
	return config{minRunes: 0, prefixRunes: 3}
}

// WithMinRunes drops documents shorter than n runes.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

// WithStopwords removes words from both documents and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps the number of indexed documents.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithPrefixMatch sets the shortest query token that may match a longer
// document token by prefix. 0 disables prefix matching.
func WithPrefixMatch(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.prefixRunes = n
		}
	}
}

type doc struct {
	id     string
	text   string
	tokens map[string]struct{}
	runes  int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index from docs.
func NewIndex(docs []Doc, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return build(docs, cfg)
}

// NewIndexFromReader indexes Markdown read from r. Tables are flattened into
// one fact per row and paragraphs get IDs "p1", "p2", ...
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	facts, err := FlattenMarkdown(r)
	if err != nil {
		return NewIndex(nil, opts...), err
	}
	docs := make([]Doc, len(facts))
	for i, f := range facts {
		docs[i] = Doc{ID: "p" + strconv.Itoa(i+1), Text: f}
	}
	return NewIndex(docs, opts...), nil
}

// NewIndexFromMarkdown reads the file at path and delegates to
// NewIndexFromReader.
func NewIndexFromMarkdown(path string, opts ...Option) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return NewIndex(nil, opts...), err
	}
	defer f.Close()
	return NewIndexFromReader(f, opts...)
}

func build(in []Doc, cfg config) *index {
	docs := make([]doc, 0, len(in))
	for _, d := range in {
		t := strings.TrimSpace(normalizeWhitespace(d.Text))
		if t == "" {
			continue
		}
		n := utf8.RuneCountInString(t)
		if cfg.minRunes > 0 && n < cfg.minRunes {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{id: d.ID, text: t, tokens: toks, runes: n})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching documents. Ties prefer shorter text,
// then lower ID, so results are deterministic.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	out := make([]Result, 0, min(k*4, len(i.docs)))
	runes := make(map[string]int, cap(out))
	for _, d := range i.docs {
		score := i.score(qTokens, d.tokens)
		if score <= 0 {
			continue
		}
		out = append(out, Result{ID: d.id, Snippet: d.text, Score: score})
		runes[d.id] = d.runes
	}
	if len(out) == 0 {
		return nil
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		if ra, rb := runes[out[a].ID], runes[out[b].ID]; ra != rb {
			return ra < rb
		}
		return out[a].ID < out[b].ID
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}

// score is |Q ∩ D| / |Q ∪ D| where a query token also counts as shared
// when it is a long enough prefix of a document token.
func (i *index) score(q, d map[string]struct{}) float64 {
	shared := 0
	for t := range q {
		if _, ok := d[t]; ok {
			shared++
			continue
		}
		if i.cfg.prefixRunes > 0 && utf8.RuneCountInString(t) >= i.cfg.prefixRunes && hasPrefixToken(d, t) {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	union := len(q) + len(d) - shared
	if union <= 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func hasPrefixToken(d map[string]struct{}, p string) bool {
	for t := range d {
		if len(t) > len(p) && strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

var wordRE = regexp.MustCompile(`[\p{L}\p{N}'ʻʼ]+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, "'ʻʼ")
		if w == "" {
			continue
		}
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
