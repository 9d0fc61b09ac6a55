package folders

import (
	"strings"

	"github.com/easemail/easemail-backend/internal/provider"
)

// systemAlias describes how a well-known folder shows up across providers.
type systemAlias struct {
	attributes []string
	names      []string
}

var systemAliases = map[string]systemAlias{
	"inbox":     {attributes: []string{`\Inbox`}, names: []string{"inbox"}},
	"sent":      {attributes: []string{`\Sent`}, names: []string{"sent", "sent items", "sent mail", "[gmail]/sent mail"}},
	"drafts":    {attributes: []string{`\Drafts`}, names: []string{"drafts", "draft"}},
	"trash":     {attributes: []string{`\Trash`}, names: []string{"trash", "deleted items", "bin"}},
	"spam":      {attributes: []string{`\Junk`}, names: []string{"spam", "junk", "junk email", "junk e-mail"}},
	"archive":   {attributes: []string{`\Archive`, `\All`}, names: []string{"archive", "all mail", "[gmail]/all mail"}},
	"starred":   {attributes: []string{`\Flagged`}, names: []string{"starred", "flagged"}},
	"important": {attributes: []string{`\Important`}, names: []string{"important"}},
}

// aliasOrder fixes the precedence when a folder matches several aliases.
var aliasOrder = []string{"inbox", "sent", "drafts", "trash", "spam", "archive", "starred", "important"}

// tokenSynonyms maps alternative spellings onto a systemAliases key.
var tokenSynonyms = map[string]string{
	"junk":    "spam",
	"bin":     "trash",
	"deleted": "trash",
	"draft":   "drafts",
	"all":     "archive",
	"flagged": "starred",
}

// canonicalAlias returns the system alias a token refers to, or "".
func canonicalAlias(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	if syn, ok := tokenSynonyms[t]; ok {
		t = syn
	}
	if _, ok := systemAliases[t]; ok {
		return t
	}
	return ""
}

// matchesAlias reports whether folder is the provider's version of alias.
func matchesAlias(folder provider.Folder, alias string) bool {
	a, ok := systemAliases[alias]
	if !ok {
		return false
	}
	for _, attr := range folder.Attributes {
		for _, want := range a.attributes {
			if strings.EqualFold(attr, want) {
				return true
			}
		}
	}
	if strings.EqualFold(folder.ID, alias) {
		return true
	}
	name := strings.ToLower(folder.Name)
	for _, want := range a.names {
		if name == want {
			return true
		}
	}
	return false
}

// LogicalName is the stable, lower-cased name a folder is stored under.
// System folders use their alias so "Sent Items" and "SENT" both become "sent".
func LogicalName(folder provider.Folder) (string, bool) {
	for _, alias := range aliasOrder {
		if matchesAlias(folder, alias) {
			return alias, true
		}
	}
	return strings.ToLower(strings.TrimSpace(folder.Name)), folder.SystemFolder
}
