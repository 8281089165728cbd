package catalog

import (
	"strings"
)

// FilterAll is the pseudo-category selecting every file.
const FilterAll = "all"

// Result is the outcome of one query evaluation: the ordered files to
// display plus the per-category counts for the filter chips.
type Result struct {
	// Files surviving both the category filter and the search term, in
	// upload-date-descending order.
	Files []File

	// CategoryCounts maps each category to the number of files matching
	// the search term (category filter NOT applied), so a user viewing
	// one category can see how many matches exist in the others.
	CategoryCounts map[CategoryID]int

	// Total is the "all" pseudo-category count: every file matching the
	// search term regardless of the category filter.
	Total int

	// Term is the normalized search term the query ran with.
	Term string
}

// IsEmpty reports the distinguished no-results state.
func (r Result) IsEmpty() bool {
	return len(r.Files) == 0
}

// Query evaluates the category filter and search term against the given
// collections. It is a pure function: it never mutates its inputs and
// identical arguments produce identical results.
//
// files must already be in display order (upload date descending);
// surviving files keep their relative order. filter is either FilterAll
// or a CategoryID. The term is trimmed and case-folded; an empty term
// matches everything. A non-empty term matches a file when it is a
// substring of the file's name, its description, or its resolved
// category's name. Files whose category cannot be resolved never match
// on category name.
func Query(files []File, categories []Category, filter string, term string) Result {
	term = fold(strings.TrimSpace(term))

	names := make(map[CategoryID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = fold(c.Name)
	}

	// The search term applies before the category filter: counts on the
	// category chips reflect search results across all categories.
	base := files
	if term != "" {
		base = make([]File, 0, len(files))
		for _, f := range files {
			if matches(f, names, term) {
				base = append(base, f)
			}
		}
	}

	counts := make(map[CategoryID]int, len(categories))
	for _, c := range categories {
		counts[c.ID] = 0
	}
	for _, f := range base {
		if _, ok := counts[f.CategoryID]; ok {
			counts[f.CategoryID]++
		}
	}

	result := base
	if filter != FilterAll {
		result = make([]File, 0, len(base))
		for _, f := range base {
			if string(f.CategoryID) == filter {
				result = append(result, f)
			}
		}
	}

	return Result{
		Files:          result,
		CategoryCounts: counts,
		Total:          len(base),
		Term:           term,
	}
}

// matches reports whether the folded term occurs in the file's name,
// description, or resolved category name.
func matches(f File, categoryNames map[CategoryID]string, term string) bool {
	if strings.Contains(fold(f.Name), term) {
		return true
	}
	if strings.Contains(fold(f.Description), term) {
		return true
	}
	if name, ok := categoryNames[f.CategoryID]; ok {
		return strings.Contains(name, term)
	}
	return false
}
