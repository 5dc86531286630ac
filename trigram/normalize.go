package trigram

import "strings"

// normalizer applies a config's normalization rules to documents and
// queries. It precomputes the character set so per-text work stays linear.
type normalizer struct {
	enabled bool
	set     map[rune]struct{}
}

func newNormalizer(c Config) *normalizer {
	n := &normalizer{enabled: c.Normalize}
	if c.Normalize {
		n.set = make(map[rune]struct{}, len(c.CharacterSet))
		for _, r := range c.CharacterSet {
			n.set[r] = struct{}{}
		}
	}
	return n
}

// normalize lowercases text and collapses every maximal run of characters
// outside the set into a single space, trimming the result. Without
// normalization the text passes through verbatim. Offsets reported by the
// index are positions in the returned stream.
func (n *normalizer) normalize(text string) string {
	if !n.enabled {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	inRun := false
	for _, r := range strings.ToLower(text) {
		if _, ok := n.set[r]; ok {
			b.WriteRune(r)
			inRun = false
		} else if !inRun {
			b.WriteRune(' ')
			inRun = true
		}
	}
	return strings.TrimSpace(b.String())
}
