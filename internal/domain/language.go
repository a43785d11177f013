package domain

import (
	"fmt"
	"strings"
)

type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCpp        Language = "cpp"

	DefaultLanguage = LanguageJavaScript
)

var languages = map[string]Language{
	"javascript": LanguageJavaScript,
	"python":     LanguagePython,
	"java":       LanguageJava,
	"cpp":        LanguageCpp,
	"c++":        LanguageCpp,
}

// ParseLanguage maps a client tag onto the supported set.
func ParseLanguage(tag string) (Language, error) {
	if l, ok := languages[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, tag)
}
