package costs

import "strings"

const perMillion = 1_000_000.0

type rate struct {
	input  float64
	output float64
}

// Checked in order; more specific model names come first.
var modelRates = []struct {
	provider string
	match    string
	rate     rate
}{
	{"openai", "gpt-4o-mini", rate{0.15, 0.60}},
	{"openai", "gpt-4.1-mini", rate{0.40, 1.60}},
	{"openai", "gpt-4.1-nano", rate{0.10, 0.40}},
	{"openai", "gpt-4o", rate{2.50, 10.00}},
	{"openai", "gpt-4.1", rate{2.00, 8.00}},
	{"anthropic", "haiku", rate{0.80, 4.00}},
	{"anthropic", "sonnet", rate{3.00, 15.00}},
	{"anthropic", "opus", rate{15.00, 75.00}},
	{"gemini", "flash-lite", rate{0.10, 0.40}},
	{"gemini", "flash", rate{0.30, 2.50}},
	{"gemini", "pro", rate{1.25, 10.00}},
}

// EstimateUSD returns the estimated USD cost of one call. Returns ok=false
// when no local pricing exists for the provider and model; OpenRouter
// models are priced by their upstream provider prefix.
func EstimateUSD(providerName, model string, inputTokens, outputTokens int) (usd float64, ok bool) {
	providerName = strings.ToLower(strings.TrimSpace(providerName))
	model = strings.ToLower(strings.TrimSpace(model))

	if providerName == "openrouter" {
		upstream, name, found := strings.Cut(model, "/")
		if !found {
			return 0, false
		}
		if upstream == "google" {
			upstream = "gemini"
		}
		providerName, model = upstream, name
	}

	for _, r := range modelRates {
		if r.provider != providerName || !strings.Contains(model, r.match) {
			continue
		}
		inputCost := (float64(inputTokens) / perMillion) * r.rate.input
		outputCost := (float64(outputTokens) / perMillion) * r.rate.output
		return inputCost + outputCost, true
	}
	return 0, false
}
