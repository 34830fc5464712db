package interpreter

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	statementPolicyOnce sync.Once
	statementPolicy     *bluemonday.Policy
)

// sanitizeHTML strips unsafe markup from rich-text metadata such as statement
// descriptions, which schemas are allowed to author with inline HTML.
func sanitizeHTML(input string) string {
	if input == "" {
		return ""
	}
	statementPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		statementPolicy = policy
	})
	return strings.TrimSpace(statementPolicy.Sanitize(input))
}
