// Package linear matches pull requests and commits to Linear tickets and
// optionally verifies the matched keys against the Linear GraphQL API.
package linear

import (
	"regexp"
	"strings"

	"github.com/steveyegge/northstar/internal/types"
)

// keyPattern matches Linear ticket keys like ENG-123 or PLAT-4. Branch
// names commonly carry them lower-cased (chad/eng-123-migrations), so
// matching is case-insensitive and keys are upper-cased on extraction.
var keyPattern = regexp.MustCompile(`(?i)\b([A-Z][A-Z0-9]{1,9})-(\d+)\b`)

// MatchPR finds the ticket key for a pull request. Sources are probed in
// priority order: branch name, title, body. Returns "" when nothing
// matches — unmatched PRs are recorded, never dropped.
func MatchPR(pr *types.PullRequest) string {
	for _, text := range []string{pr.Branch, pr.Title, pr.Body} {
		if key := ExtractKey(text); key != "" {
			return key
		}
	}
	return ""
}

// MatchCommit finds the ticket key in a commit message, or "".
func MatchCommit(c *types.Commit) string {
	return ExtractKey(c.Message)
}

// ExtractKey returns the first ticket key in text, normalized to upper
// case, or "" if there is none.
func ExtractKey(text string) string {
	m := keyPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + "-" + m[2]
}

// ExtractAllKeys returns every distinct ticket key in text, in order of
// first appearance.
func ExtractAllKeys(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range keyPattern.FindAllStringSubmatch(text, -1) {
		key := strings.ToUpper(m[1]) + "-" + m[2]
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}
