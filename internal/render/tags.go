package render

import (
	"regexp"
	"sort"
	"strings"
)

var tagMarkerRe = regexp.MustCompile(`<tag>(.+?)</tag>`)

// ExtractTags removes every `<tag>VALUE</tag>` marker from s and returns
// the remaining text with the distinct tag values, sorted. Text between
// markers is kept byte for byte; a marker without its closing half is
// left in place.
func ExtractTags(s string) (string, []string) {
	matches := tagMarkerRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}
	seen := make(map[string]struct{}, len(matches))
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		seen[s[m[2]:m[3]]] = struct{}{}
		last = m[1]
	}
	b.WriteString(s[last:])

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return b.String(), tags
}
