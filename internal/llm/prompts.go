package llm

import "fmt"

// InsightsInstructions is the system prompt for the cross-decision summary.
const InsightsInstructions = `You are an executive advisor. Given a user's list of decision cards (title, context, outcome), produce a concise insights summary.

Respond with valid JSON only, no markdown or extra text, in this exact shape:
{
  "topicsCount": number,
  "learnings": string[],
  "insights": string
}

- topicsCount: Count of distinct topics or themes covered across the decisions (e.g. measurement, pricing, hiring).
- learnings: Array of 3-7 short bullets capturing potential learnings or patterns from the recommendations and outcomes (one sentence each).
- insights: A short paragraph (2-4 sentences) summarizing the key insights across all decisions and what the executive might take away.`

// InsightsInput wraps the enumerated decision document.
func InsightsInput(document string) string {
	return fmt.Sprintf("Here are the user's decision cards:\n\n%s\n\nProduce the JSON summary as specified.", document)
}

// ProfileInstructions is the system prompt for profile synthesis. The key
// set must match engine.ProfileKeys.
const ProfileInstructions = `You create a user profile description from their decision cards. Your job is to infer who this person is professionally and demographically based only on the titles, context, and outcomes of their decisions. Do not invent details; only use what is clearly suggested by the text.

Output valid JSON only. No markdown, no code fences, no explanation. Use exactly these keys. Use empty string "" or "unknown" when you cannot infer:
- potentialAgeRange: e.g. "25-34", "35-44", "45-54", or "unknown"
- professionalType: e.g. "data/analytics lead", "product manager", "executive", "operations"
- industry: e.g. "tech", "healthcare", "finance", "retail", "unknown"
- seniority: e.g. "individual contributor", "manager", "director", "VP", "C-level", "unknown"
- focusAreas: comma-separated themes from their decisions (e.g. "measurement, pricing, hiring")
- profileDescription: 2-4 sentence narrative summary of the person (role, focus, seniority, industry) as inferred from the decisions. This is the main profile description.`

// ProfileInput wraps the (already truncated) decision document.
func ProfileInput(document string) string {
	return fmt.Sprintf("Create a profile from these decisions. Return only the JSON object.\n\nDecisions:\n\n%s", document)
}
