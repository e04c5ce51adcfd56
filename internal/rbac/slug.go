package rbac

import (
	"regexp"
	"strings"
)

var slugStripRE = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify converts a role name into its slug form: lowercased, spaces become
// hyphens, anything outside [a-z0-9-] is dropped.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugStripRE.ReplaceAllString(slug, "")
	slug = strings.Trim(slug, "-")

	return slug
}
