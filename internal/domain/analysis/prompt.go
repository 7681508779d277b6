package analysis

import "strings"

const basePrompt = `You are a marketing expert specialized in analyzing marketing images and social media posts.
Provide specific, actionable feedback organized in three categories:
1. Positives: What works well in this marketing image
2. Improvements: Specific areas that could be improved
3. Suggestions: Actionable recommendations to enhance the effectiveness

Focus on visual elements, composition, target audience appeal, brand consistency,
messaging clarity, call-to-action effectiveness, and emotional impact.`

const platformGuidance = `Pay special attention to optimizing this content for the specified target platforms,
including platform-specific best practices, aspect ratios, and content guidelines.`

// BuildSystemPrompt assembles the system message from the base instruction,
// the optional target platform list, and the user's free-text context.
func BuildSystemPrompt(platforms []string, userPrompt string) string {
	var builder strings.Builder
	builder.WriteString(basePrompt)

	if platforms = normalizePlatforms(platforms); len(platforms) > 0 {
		builder.WriteString("\n\nTarget platforms: ")
		builder.WriteString(strings.Join(platforms, ", "))
		builder.WriteString("\n\n")
		builder.WriteString(platformGuidance)
	}
	if userPrompt = strings.TrimSpace(userPrompt); userPrompt != "" {
		builder.WriteString("\n\nAdditional context from the user: ")
		builder.WriteString(userPrompt)
	}
	return builder.String()
}

// UserInstruction is the text part accompanying the image; it changes when the
// user supplied their own context.
func UserInstruction(hasPrompt bool) string {
	if hasPrompt {
		return "Analyze this marketing image with the context I provided."
	}
	return "Analyze this marketing image and provide feedback on what works well, what could be improved, and specific suggestions."
}

// normalizePlatforms trims entries and drops duplicates case-insensitively,
// keeping first-seen order.
func normalizePlatforms(platforms []string) []string {
	seen := make(map[string]struct{}, len(platforms))
	out := make([]string, 0, len(platforms))
	for _, platform := range platforms {
		platform = strings.TrimSpace(platform)
		if platform == "" {
			continue
		}
		key := strings.ToLower(platform)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, platform)
	}
	return out
}
