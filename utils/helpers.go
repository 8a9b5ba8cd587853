package utils

import (
	"regexp"
	"strings"
)

// UniqueStrings returns slice without duplicates, keeping first occurrences in order.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	uniqueSlice := []string{}
	for _, entry := range slice {
		if !keys[entry] {
			keys[entry] = true
			uniqueSlice = append(uniqueSlice, entry)
		}
	}
	return uniqueSlice
}

// SplitList splits a comma separated flag value into trimmed, unique, non-empty items.
func SplitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return UniqueStrings(items)
}

// slugRegex matches any character that is NOT a letter, a number, or a hyphen.
var slugRegex = regexp.MustCompile(`[^\p{L}\p{N}-]+`)

// CreateSlug turns a store name into a lookup key: "Legimi PL" becomes "legimi-pl".
func CreateSlug(name string) string {
	slug := strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
	slug = slugRegex.ReplaceAllString(slug, "")
	return strings.ToLower(slug)
}
