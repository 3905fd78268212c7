// Package markdown splits Markdown documents into translatable runs and a
// structural template, and shields inline formatting from remote
// translators that mangle it.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Run is one translatable piece of a document. ID ties it to its slot in
// the template, independent of list order.
type Run struct {
	ID   int
	Text string
}

var (
	fenceRe     = regexp.MustCompile("^\\s*(```|~~~)")
	headingRe   = regexp.MustCompile(`^(\s*#{1,6}\s+)(.*?)\s*$`)
	listItemRe  = regexp.MustCompile(`^(\s*(?:[-*+•]|\d+\.)\s+)(.*?)\s*$`)
	quoteRe     = regexp.MustCompile(`^(\s*>\s*)(.*?)\s*$`)
	tableRowRe  = regexp.MustCompile(`^\s*\|`)
	ruleRe      = regexp.MustCompile(`^\s*(?:[-*_=]\s*){3,}$`)
	inlineCode  = regexp.MustCompile("`[^`\n]+`")
	codeTokenRe = regexp.MustCompile(`\{\{MDCODE_\d+\}\}`)
)

func segToken(id int) string  { return fmt.Sprintf("{{MDSEG_%d}}", id) }
func codeToken(id int) string { return fmt.Sprintf("{{MDCODE_%d}}", id) }

// extractor accumulates runs and protected code while the passes walk the
// document.
type extractor struct {
	runs []Run
	code []string
}

func (e *extractor) addRun(text string) string {
	id := len(e.runs)
	e.runs = append(e.runs, Run{ID: id, Text: text})
	return segToken(id)
}

func (e *extractor) addCode(raw string) string {
	id := len(e.code)
	e.code = append(e.code, raw)
	return codeToken(id)
}

// Extract splits doc into translatable runs and a template. Code is pulled
// out first so no later step can touch it, then one top-to-bottom walk
// classifies each line (heading, list item, block quote, plain prose) and
// extracts its text, so run ids follow document order. The template carries
// the original code verbatim; only {{MDSEG_n}} slots await translated text.
//
// Trailing whitespace inside extracted lines is normalized away.
func Extract(doc string) ([]Run, string) {
	e := &extractor{}
	lines := strings.Split(doc, "\n")

	lines = e.protectFences(lines)
	for i, line := range lines {
		lines[i] = inlineCode.ReplaceAllStringFunc(line, e.addCode)
	}
	for i, line := range lines {
		lines[i] = e.extractLine(line)
	}

	template := e.restoreCode(strings.Join(lines, "\n"))
	for i := range e.runs {
		e.runs[i].Text = e.restoreCode(e.runs[i].Text)
	}
	return e.runs, template
}

// protectFences replaces every fenced code block (``` or ~~~, unclosed runs
// to EOF) with a single code token line.
func (e *extractor) protectFences(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		m := fenceRe.FindStringSubmatch(lines[i])
		if m == nil {
			out = append(out, lines[i])
			continue
		}
		marker := m[1]
		block := []string{lines[i]}
		for i++; i < len(lines); i++ {
			block = append(block, lines[i])
			if strings.HasPrefix(strings.TrimSpace(lines[i]), marker) {
				break
			}
		}
		out = append(out, e.addCode(strings.Join(block, "\n")))
	}
	return out
}

// extractLine classifies one line and extracts its translatable text. The
// block patterns (prefix + text) are tried first; anything left over is
// prose, kept with its leading indentation in the template. Table rows,
// horizontal rules, blank lines, and protected code lines pass through.
func (e *extractor) extractLine(line string) string {
	if strings.TrimSpace(line) == "" ||
		isProtectedLine(line) ||
		tableRowRe.MatchString(line) ||
		ruleRe.MatchString(line) {
		return line
	}
	for _, re := range []*regexp.Regexp{headingRe, listItemRe, quoteRe} {
		m := re.FindStringSubmatch(line)
		if m != nil && strings.TrimSpace(m[2]) != "" {
			return m[1] + e.addRun(m[2])
		}
	}
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]
	return indent + e.addRun(strings.TrimRight(trimmed, " \t"))
}

// isProtectedLine reports whether the line is nothing but a fenced-code
// token. Lines mixing a code token with prose still get extracted.
func isProtectedLine(line string) bool {
	rest := codeTokenRe.ReplaceAllString(line, "")
	return strings.TrimSpace(rest) == "" && codeTokenRe.MatchString(line)
}

func (e *extractor) restoreCode(text string) string {
	return codeTokenRe.ReplaceAllStringFunc(text, func(token string) string {
		var id int
		fmt.Sscanf(token, "{{MDCODE_%d}}", &id)
		if id < 0 || id >= len(e.code) {
			return token
		}
		return e.code[id]
	})
}

// Reconstruct fills the template's slots with the given runs, matched by
// ID rather than position, so a reordered slice still lands correctly.
func Reconstruct(template string, runs []Run) string {
	out := template
	for _, run := range runs {
		out = strings.Replace(out, segToken(run.ID), run.Text, 1)
	}
	return out
}
