package ai

import (
	"fmt"
	"strings"
)

// Prompts ask for bare JSON so parsing stays mechanical. The models still
// wrap output in markdown fences often enough that parse.go strips them.

func categoriesPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("You are classifying a Spanish-language Twitter thread about problem solving, strategy and complexity.\n\n")
	sb.WriteString("Assign between 1 and 3 category slugs (lowercase, hyphen-separated, no accents) that best describe the thread.\n\n")
	sb.WriteString("Thread:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nRespond with ONLY a JSON array of slugs, e.g. [\"resolucion-de-problemas\", \"estrategia\"]. No markdown, no explanation.\n")

	return sb.String()
}

func summaryPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("Summarize the following Twitter thread in exactly one sentence, in the thread's own language.\n\n")
	sb.WriteString("Thread:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nRespond with ONLY a JSON object: {\"summary\": \"...\"}. No markdown, no explanation.\n")

	return sb.String()
}

func examPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("Write 3 multiple-choice comprehension questions for the following Twitter thread, in the thread's own language.\n\n")
	sb.WriteString("Thread:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nRespond with ONLY a JSON array shaped like:\n")
	sb.WriteString(`[{"question": "...", "options": ["...", "...", "..."], "answer": 0}]`)
	sb.WriteString("\nwhere answer is the index of the correct option. No markdown, no explanation.\n")

	return sb.String()
}

func bookCategoriesPrompt(title, description string) string {
	var sb strings.Builder

	sb.WriteString("Assign between 1 and 3 subject categories (lowercase slugs) to this book.\n\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", title))
	if description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", description))
	}
	sb.WriteString("\nRespond with ONLY a JSON array of slugs. No markdown, no explanation.\n")

	return sb.String()
}
