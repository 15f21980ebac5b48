// Package keywords derives search tokens from npm package identifiers and
// user-supplied keyword lists.
package keywords

import "strings"

// System derives keyword tokens from a package identifier: the leading
// "@" scope marker is stripped, the id is split on "/", and every segment
// containing a hyphen is emitted followed by its hyphen-split parts.
// Order is preserved and duplicates are kept.
//
//	"@capacitor-community/camera-preview" ->
//	["capacitor-community", "capacitor", "community",
//	 "camera-preview", "camera", "preview"]
func System(packageID string) []string {
	id := strings.TrimPrefix(packageID, "@")
	out := []string{}
	for _, seg := range strings.Split(id, "/") {
		if seg == "" {
			continue
		}
		out = append(out, seg)
		if strings.Contains(seg, "-") {
			out = append(out, strings.Split(seg, "-")...)
		}
	}
	return out
}

// Normalize parses a comma-separated keyword list: each token is
// lowercased and trimmed, empties are dropped, and duplicates are removed
// keeping the first occurrence. An empty input yields an empty list.
func Normalize(csv string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(csv, ",") {
		kw := strings.ToLower(strings.TrimSpace(raw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
