package core

import "strings"

// Delimiters accepted in upstream author and tag strings.
const (
	authorDelimiters = ",;\t\n\r"
	tagDelimiter     = " "
)

// SplitAuthors splits a delimited author string into individual names.
// Tokens are trimmed and empty tokens dropped.
func SplitAuthors(authors string) []string {
	return splitTrim(authors, authorDelimiters)
}

// SplitTags splits a space-delimited tag string into individual tags.
// Tokens are trimmed and empty tokens dropped.
func SplitTags(tags string) []string {
	return splitTrim(tags, tagDelimiter)
}

func splitTrim(s, delimiters string) []string {
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(delimiters, r)
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
