package catalog

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Normalizer cleans supplier answer text before scoring. Answers submitted
// through the portal's rich-text editor arrive as HTML fragments.
type Normalizer struct {
	policy *bluemonday.Policy
}

// NewNormalizer returns a Normalizer. With stripMarkup false it only trims.
func NewNormalizer(stripMarkup bool) *Normalizer {
	n := &Normalizer{}
	if stripMarkup {
		n.policy = bluemonday.StrictPolicy()
	}
	return n
}

// Text returns the plain-text form of one answer.
func (n *Normalizer) Text(s string) string {
	if n == nil || n.policy == nil || !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	// bluemonday escapes entities in its output; undo that so length rules see real characters.
	return strings.TrimSpace(html.UnescapeString(n.policy.Sanitize(s)))
}

// Answers returns a normalized copy of a.
func (n *Normalizer) Answers(a Answers) Answers {
	out := make(Answers, len(a))
	for id, text := range a {
		out[id] = n.Text(text)
	}
	return out
}
