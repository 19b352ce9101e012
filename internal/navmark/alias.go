package navmark

// Aliases maps a page identifier to the identifier that the navbar uses for
// it.
type Aliases map[string]string

// DefaultAliases returns the alias table used when none is configured.
func DefaultAliases() Aliases {
	return Aliases{
		"publications.html": "publication.html",
	}
}

// Resolve returns the alias for id, or id itself when there is none. Aliases
// are not chained: the result is never looked up again.
func (a Aliases) Resolve(id string) string {
	if alias, ok := a[id]; ok {
		return alias
	}
	return id
}
