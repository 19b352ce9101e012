package navmark

import (
	"slices"
	"strings"
)

// DefaultActiveClass is the class added to the link for the current page.
const DefaultActiveClass = "active"

// Link describes a single navigation link without tying it to any particular
// document representation.
type Link struct {
	// Target is the value of the link's href attribute.
	Target string

	// HasTarget is false when the link has no href attribute at all. Such
	// links never match.
	HasTarget bool

	// Classes holds the link's presentation classes, in order.
	Classes []string
}

// Matches reports whether the link points at the page identified by id.
func (l *Link) Matches(id string) bool {
	return l.HasTarget && l.Target == id
}

// HasClass reports whether class is one of the link's classes.
func (l *Link) HasClass(class string) bool {
	return slices.Contains(l.Classes, class)
}

// AddClass adds class to the link unless it's already present.
func (l *Link) AddClass(class string) {
	if l.HasClass(class) {
		return
	}
	l.Classes = append(l.Classes, class)
}

// MarkLinks adds class to every link that matches id, in order, and returns
// how many links matched. Links that don't match are left untouched.
func MarkLinks(links []*Link, id, class string) int {
	matched := 0
	for _, link := range links {
		if link == nil || !link.Matches(id) {
			continue
		}
		link.AddClass(class)
		matched++
	}
	return matched
}

// addClass returns the class attribute value with class appended, and
// whether anything changed.
func addClass(attr, class string) (string, bool) {
	fields := strings.Fields(attr)
	if slices.Contains(fields, class) {
		return attr, false
	}
	if strings.TrimSpace(attr) == "" {
		return class, true
	}
	return strings.TrimRight(attr, " \t\n\f\r") + " " + class, true
}
