package main

import (
	"flag"
	"fmt"
	"os"

	"ai-tutoring-be/pkg/knowledge"

	"github.com/fatih/color"
)

// corpuscheck loads a knowledge corpus and reports what a server run would
// see: per-category entry counts and every entry that would be skipped.
func main() {
	corpusDir := flag.String("dir", "corpus", "corpus directory (one JSON collection per category)")
	flag.Parse()

	warnings := 0
	store, err := knowledge.Load(os.DirFS("."), *corpusDir, func(file string, index int, reason string) {
		warnings++
		color.Yellow("WARN  %s[%d]: %s", file, index, reason)
	})
	if err != nil {
		color.Red("FATAL %v", err)
		os.Exit(1)
	}

	color.Green("Corpus OK: %d entries, %d skipped", store.Len(), warnings)
	for _, category := range store.Categories() {
		entries := store.ListByCategory(category)
		fmt.Printf("  %s: %d entries, topics %v\n", category, len(entries), store.TopicsForCategory(category))
		for _, e := range entries {
			marker := " "
			if len(e.SocraticQuestions) == 0 {
				marker = color.YellowString("!") // no entry-level guidance
			}
			fmt.Printf("   %s %-28s %s (%s)\n", marker, e.ID, e.Theorem, e.Difficulty)
		}
	}
}
