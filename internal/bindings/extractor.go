// File: internal/bindings/extractor.go
package bindings

import (
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

// ExtractID derives the stable identity of a list item according to the
// bindings' extraction rule. The second return value reports whether the id
// is stable: when extraction fails a random fallback id is produced, which
// weakens processed-item dedup for that item, so callers track the count.
func ExtractID(ex schemas.ItemIDExtractor, h schemas.ElementHandle) (string, bool) {
	var candidate string
	switch ex.From {
	case schemas.IDFromHref:
		candidate = h.Href
	case schemas.IDFromAttribute, schemas.IDFromData:
		candidate = h.DataID
	case schemas.IDFromText:
		candidate = normalizeText(h.Text)
	}

	if candidate != "" && ex.Pattern != "" {
		candidate = applyPattern(ex.Pattern, candidate)
	}

	if candidate == "" {
		return "item-" + uuid.NewString(), false
	}
	return candidate, true
}

// applyPattern runs the extractor regex over the candidate. First capture
// group wins; a pattern without groups uses the full match. No match, or a
// pattern that does not compile, empties the candidate so the fallback kicks
// in.
func applyPattern(pattern, candidate string) string {
	re, err := compilePattern(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(candidate)
	switch {
	case len(m) > 1:
		return m[1]
	case len(m) == 1:
		return m[0]
	default:
		return ""
	}
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, ok := patternCache[pattern]
	patternMu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternMu.Lock()
	patternCache[pattern] = re
	patternMu.Unlock()
	return re, nil
}

// normalizeText collapses whitespace and bounds length so text-derived ids
// stay stable across renders that only shuffle formatting.
func normalizeText(s string) string {
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	const maxLen = 120
	if len(joined) > maxLen {
		joined = joined[:maxLen]
	}
	return joined
}
