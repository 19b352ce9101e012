// internal/pubs/citation.go
package pubs

import (
	"regexp"
	"strings"
)

var (
	listNumber = regexp.MustCompile(`^\s*\d+\.\s*`)
	// the title is whatever follows the last author comma, up to the period
	// that precedes the journal name
	titlePattern = regexp.MustCompile(`^.*,\s*(.*?)\.\s*[A-Z]`)
	wordPattern  = regexp.MustCompile(`[A-Za-z0-9]+`)
)

// ExtractTitleAndAuthor pulls the title and the first author's last name out
// of a citation like
//
//	3. A. Writer, B. Coauthor, Some title. J. Chem. Phys. 160, 1 (2024).
//
// Either result is empty when the citation doesn't have that shape.
func ExtractTitleAndAuthor(citation string) (title, lastName string) {
	c := strings.TrimSpace(listNumber.ReplaceAllString(citation, ""))

	firstAuthor, _, _ := strings.Cut(c, ",")
	if words := strings.Fields(firstAuthor); len(words) > 0 {
		lastName = strings.Trim(words[len(words)-1], ".")
	}
	if m := titlePattern.FindStringSubmatch(c); m != nil {
		title = strings.TrimSpace(m[1])
	}
	return title, lastName
}

// TitleSimilarity is the Jaccard index of the two titles' lowercase word
// sets. It is 0 when either title has no words.
func TitleSimilarity(a, b string) float64 {
	ta, tb := words(a), words(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for w := range ta {
		if tb[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

func words(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		set[w] = true
	}
	return set
}
