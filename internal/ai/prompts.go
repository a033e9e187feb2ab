package ai

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an AI assistant embedded in a customer support inbox. " +
	"Always answer with a single JSON object and nothing else."

// knowledgeBase is the fixed policy context given to reply generation.
const knowledgeBase = "General company policy: be polite, helpful, and concise."

func summarizePrompt(body string) string {
	return fmt.Sprintf(`Summarize the following email content in a concise manner.

Return JSON of the form {"summary": "<summary>"}.

Email:
%s`, body)
}

func replyPrompt(body string) string {
	return fmt.Sprintf(`Write a draft reply to the following customer email.

Extracted information: No specific info extracted.
Knowledge base: %s

Return JSON of the form {"draftText": "<reply>"}.

Email:
%s`, knowledgeBase, body)
}

func classifyPrompt(subject, body string) string {
	return fmt.Sprintf(`Analyze the following email and determine its sentiment (positive, negative, or neutral) and priority (high, medium, or low).

Return JSON of the form {"sentiment": "<sentiment>", "priority": "<priority>"}.

Subject: %s
Body: %s`, subject, body)
}

// extractJSON strips markdown code fences and any prose around the first
// JSON object in s.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) >= 2 {
			lines = lines[1:]
		}
		if len(lines) >= 1 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
			lines = lines[:len(lines)-1]
		}
		s = strings.Join(lines, "\n")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
