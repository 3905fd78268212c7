package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// Emphasis spans are rewritten into @@TAG n@@ sentinel pairs before a run
// goes to the remote translator. The tag letters were picked because the
// translators we talk to pass uppercase ASCII through untouched far more
// reliably than asterisks and underscores.
const (
	tagCode       = "CODE" // opaque shielded content, no closing token
	tagBold       = "B"    // **x**
	tagBoldAlt    = "U"    // __x__
	tagItalic     = "I"    // *x*
	tagItalicAlt  = "E"    // _x_
	sentinelRunes = "@"
)

var (
	// Shielded wholesale, highest priority: code spans and the template
	// tokens Extract may have left inside a run.
	shieldRe = regexp.MustCompile("`[^`\n]+`|\\{\\{MDSEG_\\d+\\}\\}|\\{\\{MDCODE_\\d+\\}\\}")

	boldRe      = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	boldAltRe   = regexp.MustCompile(`__([^_\n]+)__`)
	italicRe    = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicAltRe = regexp.MustCompile(`_([^_\n]+)_`)

	// Span content may not contain another sentinel, so a nested pair is
	// always resolved innermost first.
	pairedTokenRe = regexp.MustCompile(`@@(B|U|I|E)(\d+)@@((?:[^@]|@[^@])*)@@/(B|U|I|E)(\d+)@@`)
	codeSentRe    = regexp.MustCompile(`@@CODE(\d+)@@`)

	// Repair patterns for translator damage, applied in order.
	spacedTokenRe = regexp.MustCompile(`@\s*@\s*(/?)\s*(CODE|B|U|I|E)\s*([0-9]+)\s*@\s*@`)
	splitTokenRe  = regexp.MustCompile(`@@\s*(/?)\s*((?:[A-Z]\s*)+)((?:[0-9]\s*)+)@@`)
	localizedRe   = regexp.MustCompile(`@@[^@\n]{1,20}@@`)
	strayBoldRe   = regexp.MustCompile(`\*\*\s+(.+?)\s+\*\*`)
	strayBoldURe  = regexp.MustCompile(`__\s+(.+?)\s+__`)
)

var localizedDigits = map[rune]rune{
	'〇': '0', '零': '0', '一': '1', '二': '2', '三': '3', '四': '4',
	'五': '5', '六': '6', '七': '7', '八': '8', '九': '9',
	'０': '0', '１': '1', '２': '2', '３': '3', '４': '4',
	'５': '5', '６': '6', '７': '7', '８': '8', '９': '9',
}

var emphasisMarkers = map[string]string{
	tagBold:      "**",
	tagBoldAlt:   "__",
	tagItalic:    "*",
	tagItalicAlt: "_",
}

// Protector shields one run's formatting for a round trip through a remote
// translator. It is stateful: Restore must be called on the same instance
// that produced the shielded text, since shielded code lives here.
type Protector struct {
	shielded []string
}

func NewProtector() *Protector {
	return &Protector{}
}

// Protect replaces code spans and emphasis pairs with sentinel tokens.
// Code is shielded first so an underscore inside `a_b` never reads as
// italic.
func (p *Protector) Protect(text string) string {
	out := shieldRe.ReplaceAllStringFunc(text, func(raw string) string {
		id := len(p.shielded)
		p.shielded = append(p.shielded, raw)
		return fmt.Sprintf("@@%s%d@@", tagCode, id)
	})

	out = p.wrap(out, boldRe, tagBold)
	out = p.wrap(out, boldAltRe, tagBoldAlt)
	out = p.wrap(out, italicRe, tagItalic)
	out = p.wrap(out, italicAltRe, tagItalicAlt)
	return out
}

func (p *Protector) wrap(text string, re *regexp.Regexp, tag string) string {
	count := 0
	return re.ReplaceAllStringFunc(text, func(raw string) string {
		inner := re.FindStringSubmatch(raw)[1]
		token := fmt.Sprintf("@@%s%d@@%s@@/%s%d@@", tag, count, inner, tag, count)
		count++
		return token
	})
}

// Restore undoes Protect on translator output. Remote translators insert
// spaces inside tokens, split token names, and localize digits, so exact
// substitution is followed by a chain of repair passes, each one giving the
// exact pass another chance. A sentinel that survives every pass is logged
// and left in place; restoration never fails.
func (p *Protector) Restore(text string) string {
	out := p.substitute(text)

	repairs := []struct {
		name  string
		apply func(string) string
	}{
		{"spaced-token", repairSpacedTokens},
		{"split-token", repairSplitTokens},
		{"localized-digits", repairLocalizedDigits},
	}
	for _, r := range repairs {
		if !strings.Contains(out, sentinelRunes) {
			break
		}
		out = p.substitute(r.apply(out))
	}

	out = strayBoldRe.ReplaceAllString(out, "**$1**")
	out = strayBoldURe.ReplaceAllString(out, "__$1__")

	if strings.Contains(out, "@@") {
		log.Warn("Unresolved formatting sentinel after restore: %q", out)
	}
	return out
}

// substitute is the exact pass: rebuild emphasis pairs and unshield code.
// Nested emphasis needs one round per nesting level (inner pairs first, then
// the outer pair they were hiding inside), so it runs to a fixed point.
func (p *Protector) substitute(text string) string {
	for {
		out := p.substituteOnce(text)
		if out == text {
			return out
		}
		text = out
	}
}

func (p *Protector) substituteOnce(text string) string {
	out := pairedTokenRe.ReplaceAllStringFunc(text, func(raw string) string {
		m := pairedTokenRe.FindStringSubmatch(raw)
		if m[1] != m[4] || m[2] != m[5] {
			return raw
		}
		marker := emphasisMarkers[m[1]]
		return marker + m[3] + marker
	})
	return codeSentRe.ReplaceAllStringFunc(out, func(raw string) string {
		var id int
		fmt.Sscanf(raw, "@@CODE%d@@", &id)
		if id < 0 || id >= len(p.shielded) {
			return raw
		}
		return p.shielded[id]
	})
}

// repairSpacedTokens collapses whitespace a translator slipped inside a
// sentinel, "@ @ B 0 @@" back to "@@B0@@".
func repairSpacedTokens(text string) string {
	return spacedTokenRe.ReplaceAllString(text, "@@$1$2$3@@")
}

// repairSplitTokens rejoins a token name split mid-word, "@@C ODE 12@@".
func repairSplitTokens(text string) string {
	return splitTokenRe.ReplaceAllStringFunc(text, func(raw string) string {
		m := splitTokenRe.FindStringSubmatch(raw)
		name := strings.Map(dropSpace, m[2])
		digits := strings.Map(dropSpace, m[3])
		switch name {
		case tagCode, tagBold, tagBoldAlt, tagItalic, tagItalicAlt:
			return "@@" + m[1] + name + digits + "@@"
		}
		return raw
	})
}

// repairLocalizedDigits converts localized number words inside sentinel
// tokens back to ASCII digits, "@@B五@@" to "@@B5@@".
func repairLocalizedDigits(text string) string {
	return localizedRe.ReplaceAllStringFunc(text, func(raw string) string {
		return strings.Map(func(r rune) rune {
			if d, ok := localizedDigits[r]; ok {
				return d
			}
			return r
		}, raw)
	})
}

func dropSpace(r rune) rune {
	if r == ' ' || r == '\t' {
		return -1
	}
	return r
}
