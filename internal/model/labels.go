package model

import "strings"

// DefaultLabel derives a human-readable label from a property name when the
// schema carries no title. Underscores and dashes split words; each word is
// capitalised.
func DefaultLabel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	replacer := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	words := strings.Fields(replacer.Replace(name))
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	if word == "" {
		return ""
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
