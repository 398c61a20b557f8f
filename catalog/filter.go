package catalog

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"pharmacy/domain"
)

// AllCategories is the sentinel that disables category filtering.
const AllCategories = "all"

// Filter returns the products matching both the search term and the category,
// in their original relative order.
func Filter(products []domain.Product, search, category string) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if Matches(p, search, category) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p passes both the search and the category predicate.
func Matches(p domain.Product, search, category string) bool {
	return MatchesSearch(p, search) && MatchesCategory(p, category)
}

// MatchesSearch is a case-insensitive substring match on name or description.
// A blank term matches everything.
func MatchesSearch(p domain.Product, search string) bool {
	if strings.TrimSpace(search) == "" {
		return true
	}
	term := strings.ToLower(search)
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

// MatchesCategory compares categories case-insensitively. Products without a category
// only pass when no category is selected.
func MatchesCategory(p domain.Product, category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return p.HasCategory() && strings.EqualFold(p.Category, category)
}

// Categories derives "all" followed by the distinct categories in first-seen order.
func Categories(products []domain.Product) []string {
	out := []string{AllCategories}
	seen := map[string]struct{}{AllCategories: {}}
	for _, p := range products {
		if !p.HasCategory() {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// EmptyMessage is shown when the filtered result is empty. total is the catalog size.
func EmptyMessage(total int, search string) string {
	switch {
	case total == 0:
		return "No products available"
	case search != "":
		return fmt.Sprintf(`No products found matching "%s"`, search)
	default:
		return "No products available in this category"
	}
}

// CategoryLabel capitalizes the first letter and lower-cases the rest.
func CategoryLabel(category string) string {
	r, size := utf8.DecodeRuneInString(category)
	if r == utf8.RuneError {
		return category
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(category[size:])
}
