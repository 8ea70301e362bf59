package dedup

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

// stopwordFile maps an ISO 639-1 code to its embedded list.
var stopwordFile = map[string]string{
	"en": "stopwords/english.txt",
	"fr": "stopwords/french.txt",
}

// StopWords returns the stop-word set for an ISO 639-1 language code.
func StopWords(lang string) (map[string]bool, error) {
	name, ok := stopwordFile[lang]
	if !ok {
		return nil, fmt.Errorf("no stop-word list for language %q", lang)
	}
	f, err := stopwordFiles.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open stop words %s: %w", name, err)
	}
	defer f.Close()

	words := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words[w] = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stop words %s: %w", name, err)
	}
	return words, nil
}
