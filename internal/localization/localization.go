// Package localization provides the translated strings used in notifications.
// Complaints carry the language the student filed them in; notification text
// follows that language. Built-in English strings are always present; extra
// languages load from JSON files named by language code (e.g. "hi.json").
package localization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// builtin holds the default English strings so the service runs without any
// translation files on disk.
var builtin = map[string]string{
	"email.registration.subject": "Welcome to BlockFix!",
	"email.registration.body":    "Your account has been created. You can now raise complaints, vote on issues and track resolutions.",
	"email.resolution.subject":   "Your complaint has been resolved",
	"email.resolution.body":      "Please log in to confirm the resolution and rate the service quality.",
	"alert.urgent":               "URGENT complaint raised",
}

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer returns a Localizer seeded with the built-in English strings.
func NewLocalizer() *Localizer {
	return &Localizer{
		translations: map[string]map[string]string{"en": builtin},
	}
}

// LoadDir merges translations from a directory of per-language JSON files.
func (l *Localizer) LoadDir(path string) error {
	files, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("failed to read localization directory: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(path, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		if l.translations[lang] == nil {
			l.translations[lang] = make(map[string]string)
		}
		for key, value := range translations {
			l.translations[lang][key] = value
		}
	}
	return nil
}

// GetString returns the localized string for a key. Language tags like
// "en-US" fall back to their base language, then to English, then to the key
// itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if base, _, found := strings.Cut(lang, "-"); found {
		lang = base
	}
	if langTranslations, ok := l.translations[lang]; ok {
		if value, ok := langTranslations[key]; ok {
			return value
		}
	}
	if lang != "en" {
		if value, ok := l.translations["en"][key]; ok {
			return value
		}
	}
	return key
}
