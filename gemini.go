package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GenerateFarmGuide asks Gemini for a short farming guide for one item,
// grounded on the sources the database actually knows. The model only
// writes prose; every number in the prompt comes from our own rows.
func GenerateFarmGuide(q *Queries, itemQuery string) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	results, err := q.SearchItems(itemQuery, 1)
	if err != nil {
		return "", fmt.Errorf("failed to search for item %q: %w", itemQuery, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no item matches %q", itemQuery)
	}
	item := results[0]

	sources, err := q.ItemSources(item.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load sources for item %d: %w", item.ID, err)
	}
	if len(sources) == 0 {
		return "", fmt.Errorf("item %s (ID %d) has no known sources", item.Name, item.ID)
	}

	var lines []string
	for _, src := range sources {
		rate := "unknown rate"
		if src.Rate.Valid {
			rate = fmt.Sprintf("%.2f%%", src.Rate.Float64)
		}
		lines = append(lines, fmt.Sprintf("- %s %q, %s, quantity %d",
			src.SourceType, src.SourceName, rate, src.Quantity))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-flash-lite-latest")

	prompt := fmt.Sprintf(`You are an expert Ragnarok Online farming advisor.
Write a short, practical farming guide for the item %q (item ID %d).

These are the only known sources for it, taken from a scraped game database:
%s

Rules:
- "mob" sources are monsters that drop the item at the given rate per kill.
- "container" sources are boxes or albums that can contain the item; their rates are usually unknown.
- Recommend the best one or two sources and say why, based only on the data above.
- Do not invent sources, rates or numbers that are not listed.
- Keep it under 150 words, plain text, no markdown.`,
		item.Name, item.ID, strings.Join(lines, "\n"))

	log.Println("🤖 Sending request to Gemini API...")
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("received an empty or invalid response from Gemini API")
	}

	guide := strings.TrimSpace(fmt.Sprintf("%s", resp.Candidates[0].Content.Parts[0]))
	return guide, nil
}
