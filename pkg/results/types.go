// Package results parses scan transcripts into grouped match records.
package results

import "fmt"

// DefaultHost is the code host used to build item links.
const DefaultHost = "github.com"

// Transcript markers written by the scanner and recognized by the parser.
const (
	// TermMarker opens a new group; the term follows it up to TermClose.
	TermMarker = "=== Termo:"

	// TermClose ends the term label.
	TermClose = "==="

	// ItemMarker flags a line carrying a "repository - path" pair.
	ItemMarker = "📁"

	// LinkMarker flags the hosted link written after an item line.
	// The parser does not read it; links are derived from the item.
	LinkMarker = "🔗"

	// ItemSeparator splits the repository from the path.
	ItemSeparator = "-"
)

// Group holds the matches found for one search term.
type Group struct {
	// Term is the search term label, possibly empty.
	Term string `json:"term"`

	// Items are the matches in order of appearance.
	Items []Item `json:"items"`
}

// Item is a single match inside a repository.
type Item struct {
	// Repository is the owner/name identifier.
	Repository string `json:"repository"`

	// Path is the file path within the repository.
	Path string `json:"path"`

	// URL links to the file on the default branch.
	URL string `json:"url"`
}

// BlobURL builds the hosted view link for a file on the main branch.
func BlobURL(host, repository, path string) string {
	return fmt.Sprintf("https://%s/%s/blob/main/%s", host, repository, path)
}

// Count returns the total number of items across groups.
func Count(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Items)
	}
	return n
}
