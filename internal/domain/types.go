package domain

import (
	"fmt"
	"strings"
	"time"
)

type SessionID string
type UserID string

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole accepts the three roles a completion provider understands.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Language is the user's preferred language. It drives the system prompt
// fallback and UI copy, never the content of stored messages.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageTagalog Language = "tagalog"
	LanguageBisaya  Language = "bisaya"
)

const DefaultLanguage = LanguageEnglish

// Languages lists the supported languages in display order.
func Languages() []Language {
	return []Language{LanguageEnglish, LanguageTagalog, LanguageBisaya}
}

// ParseLanguage is case-insensitive. An empty string yields DefaultLanguage.
func ParseLanguage(s string) (Language, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return DefaultLanguage, nil
	}
	switch l := Language(v); l {
	case LanguageEnglish, LanguageTagalog, LanguageBisaya:
		return l, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// Label is the human readable name of the language.
func (l Language) Label() string {
	switch l {
	case LanguageTagalog:
		return "Tagalog"
	case LanguageBisaya:
		return "Bisaya"
	default:
		return "English"
	}
}

type Timestamp = time.Time
