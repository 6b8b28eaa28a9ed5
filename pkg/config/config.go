// Package config loads the harvester configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for everything but CATEGORIES, which has no default: an empty
// category list means there is nothing to harvest.
const (
	DefaultLimit       = 50
	DefaultLang        = "ja"
	DefaultSleep       = 800 * time.Millisecond
	DefaultWordsPath   = "words.json"
	DefaultJournalPath = "harvest.db"
	DefaultLogLevel    = "info"
)

// Config holds all configuration for a harvest run.
type Config struct {
	Categories  []string
	Limit       int
	Lang        string
	Sleep       time.Duration
	WordsPath   string
	JournalPath string
	Denylist    []string
	LogLevel    string
}

// Load reads configuration from the environment, applying defaults.
// Unset or empty variables fall back; malformed numeric values are errors.
func Load() (*Config, error) {
	cfg := &Config{
		Categories:  splitList(os.Getenv("CATEGORIES")),
		Limit:       DefaultLimit,
		Lang:        DefaultLang,
		Sleep:       DefaultSleep,
		WordsPath:   DefaultWordsPath,
		JournalPath: DefaultJournalPath,
		LogLevel:    DefaultLogLevel,
	}

	if v := os.Getenv("LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("LIMIT must be a non-negative integer, got %q", v)
		}
		cfg.Limit = n
	}

	if v := os.Getenv("LANG"); v != "" {
		cfg.Lang = v
	}

	if v := os.Getenv("SLEEP"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("SLEEP must be a non-negative number of seconds, got %q", v)
		}
		cfg.Sleep = time.Duration(secs * float64(time.Second))
	}

	if v := os.Getenv("WORDS_PATH"); v != "" {
		cfg.WordsPath = v
	}
	if v := os.Getenv("JOURNAL_PATH"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("DENYLIST"); v != "" {
		cfg.Denylist = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// splitList parses a comma-separated value, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
