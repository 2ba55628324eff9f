// Package people finds the participants of an event in a chat message.
package people

import (
	"strings"
	"sync"
	"unicode"

	"github.com/tsawler/prose/v3"
)

var (
	// Decoded once and shared; documents are built one at a time.
	modelMu sync.Mutex
	model   = sync.OnceValue(func() *prose.Model {
		doc, err := prose.NewDocument("", prose.WithSegmentation(false))
		if err != nil {
			return nil
		}
		return doc.Model
	})
)

// Names returns explicit mentions first, then PERSON entities recognised in
// text, deduplicated case-insensitively and in order of appearance.
func Names(text string, mentions []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}
	for _, m := range mentions {
		add(m)
	}
	for _, p := range persons(text) {
		add(p)
	}
	return out
}

// Join formats names for the events.participants column.
func Join(names []string) string {
	return strings.Join(names, ", ")
}

// persons skips the tagger when no word is capitalised.
func persons(text string) []string {
	if !hasCapitalised(text) {
		return nil
	}
	m := model()
	if m == nil {
		return nil
	}
	modelMu.Lock()
	doc, err := prose.NewDocument(text, prose.UsingModel(m), prose.WithSegmentation(false))
	modelMu.Unlock()
	if err != nil {
		return nil
	}
	var out []string
	for _, ent := range doc.Entities() {
		if strings.EqualFold(ent.Label, "PERSON") {
			out = append(out, ent.Text)
		}
	}
	return out
}

func hasCapitalised(text string) bool {
	for _, word := range strings.Fields(text) {
		if r := []rune(word); unicode.IsUpper(r[0]) {
			return true
		}
	}
	return false
}
