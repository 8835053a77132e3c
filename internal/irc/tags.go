package irc

import "regexp"

// TagMap holds the key=value metadata pairs extracted from one raw line.
// A missing key is absent from the map, which is not the same thing as a
// key mapped to the empty string.
type TagMap map[string]string

var (
	// tagPairPattern matches one key=value pair anywhere in the line. TMI puts
	// tags before the prefix, but the dialect does not guarantee a fixed tag
	// block, so the scan runs over the whole line. Empty-valued tags
	// ("badges=;") never match and stay absent from the map.
	tagPairPattern = regexp.MustCompile(`([^;@]+)=([^;]+)`)

	// trailingPattern captures the text after the last colon to end of line.
	trailingPattern = regexp.MustCompile(`([^:]+)$`)
)

// ParseTags scans raw for key=value pairs and returns them as a TagMap.
// A line with no tags yields an empty map; absence of structure is valid
// input, not a failure.
func ParseTags(raw string) TagMap {
	matches := tagPairPattern.FindAllStringSubmatch(raw, -1)

	tags := make(TagMap, len(matches))
	for _, m := range matches {
		tags[m[1]] = m[2]
	}
	return tags
}

// Trailing returns the freeform payload after the final colon in raw, or ""
// when the line carries no trailing segment.
func Trailing(raw string) string {
	m := trailingPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}

// Get returns the value for key and whether the key was present at all.
func (t TagMap) Get(key string) (string, bool) {
	v, ok := t[key]
	return v, ok
}

// Flag reports whether the tag value is the literal "1". Any other value,
// including absence, is false.
func (t TagMap) Flag(key string) bool {
	return t[key] == "1"
}
