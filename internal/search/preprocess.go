package search

import (
	"bufio"
	"io"
	"strings"
)

// FlattenMarkdown splits a help or FAQ document into standalone facts.
// Paragraphs (separated by blank lines) become one fact each; every table
// row becomes its own fact with cells joined by spaces; heading markers and
// table separator rows are dropped.
func FlattenMarkdown(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		facts []string
		para  []string
	)
	flush := func() {
		if len(para) > 0 {
			facts = append(facts, strings.Join(para, " "))
			para = para[:0]
		}
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|"):
			flush()
			if row := tableRow(line); row != "" {
				facts = append(facts, row)
			}
		case strings.HasPrefix(line, "#"):
			flush()
			if h := strings.TrimSpace(strings.TrimLeft(line, "#")); h != "" {
				para = append(para, h+":")
			}
		default:
			para = append(para, strings.TrimLeft(line, "-* "))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return facts, nil
}

// tableRow joins the non-empty cells of a Markdown table row. Separator rows
// such as "|---|:--:|" yield "".
func tableRow(line string) string {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	out := make([]string, 0, len(cells))
	sep := true
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if strings.Trim(c, ":-") != "" {
			sep = false
		}
		if c != "" {
			out = append(out, c)
		}
	}
	if sep {
		return ""
	}
	return strings.Join(out, " ")
}
