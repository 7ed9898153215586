package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint returns the mdfp content fingerprint of a complete document.
// The header is hashed without its trailing newline so the value does not
// depend on how the final delimiter line was joined.
func Fingerprint(doc []byte) (string, error) {
	page, err := Parse(doc)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(page.Header), page.Newline), string(page.Body)), nil
}
