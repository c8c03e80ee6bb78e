package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Slugify lowercases, trims, and collapses every run of non-alphanumeric
// characters into a single hyphen. Heading ids and anchors use this form.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// slugIDs implements goldmark's parser.IDs so auto heading ids use Slugify.
// A fresh instance goes into each render's parser context.
type slugIDs struct {
	used map[string]struct{}
}

func newSlugIDs() *slugIDs {
	return &slugIDs{used: make(map[string]struct{})}
}

func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	slug := Slugify(string(value))
	if slug == "" {
		slug = "section"
	}
	candidate := slug
	for i := 1; ; i++ {
		if _, taken := s.used[candidate]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
	s.used[candidate] = struct{}{}
	return []byte(candidate)
}

func (s *slugIDs) Put(value []byte) {
	s.used[string(value)] = struct{}{}
}
