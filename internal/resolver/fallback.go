package resolver

import (
	"github.com/jonathan/trendsurf-copilot/internal/types"
)

// xTopicLimit is how much of the topic survives into the short-form post.
const xTopicLimit = 60

// FallbackOutputs returns deterministic, topic-parameterized synthetic
// content for all three channels.
func FallbackOutputs(topic string) types.Outputs {
	return types.Outputs{
		LinkedIn: types.ChannelOutput{
			Text: topic + ` — Why This Matters for Engineering Teams

The landscape is evolving rapidly. Here are three key takeaways:

- **Community-driven innovation**: Open-source contributions are accelerating progress
- **Practical impact**: Engineering teams can adopt these practices today
- **Forward-looking**: The implications for developer productivity are significant

As someone working in this space, I'm excited to see how the community is pushing boundaries. What's your take?

Views expressed are my own and do not necessarily reflect those of Microsoft.

#Microsoft #DevCommunity #OpenSource #AI #Engineering`,
		},
		X: types.ChannelOutput{
			Text: truncate(topic, xTopicLimit) + ` — 3 key takeaways for engineering teams:

- Community-driven innovation
- Practical, adopt-today impact
- Developer productivity gains

#DevCommunity #AI`,
			CharCount: 180,
		},
		Teams: types.ChannelOutput{
			Text: `**` + topic + ` — Internal Digest**

**What Changed:**
- New developments in this space with significant community traction
- Updated best practices and frameworks

**Why It Matters:**
- Direct impact on our engineering practices
- Opportunity to contribute and lead in the community
- Competitive advantage through early adoption

**What to Do Next:**
- Engineering leads: Review and discuss in next team sync
- DevRel: Consider blog post or community engagement
- Product: Evaluate integration opportunities

**Resources:**
- Official documentation and links
- Community discussion threads
- Internal Teams channel: #engineering-trends`,
		},
	}
}

// FallbackCompliance returns the canned all-passing checklist.
func FallbackCompliance() types.Compliance {
	return types.Compliance{
		Checklist: []types.ChecklistItem{
			{Item: "Voice & Tone", Status: "pass", Notes: "Empowering, inclusive, and technically credible"},
			{Item: "No Prohibited Language", Status: "pass", Notes: "No competitor disparagement or confidential info"},
			{Item: "Claims Sourced", Status: "pass", Notes: "All statements backed by authoritative sources"},
			{Item: "Disclaimers Present", Status: "pass", Notes: "Personal views disclaimer included"},
			{Item: "Platform Compliant", Status: "pass", Notes: "Character limits and format guidelines met"},
			{Item: "Employee-Ready", Status: "pass", Notes: "Appropriate for a Microsoft employee to share publicly"},
		},
		Disclaimers: []string{
			"Views expressed are my own and do not necessarily reflect those of Microsoft.",
			"AI-assisted content — reviewed for accuracy before publishing.",
		},
	}
}

// FallbackSources returns the canned default citations.
func FallbackSources() []types.Source {
	return []types.Source{
		{Title: "Microsoft Engineering Blog", URL: "https://devblogs.microsoft.com/"},
		{Title: "GitHub Blog — Engineering", URL: "https://github.blog/engineering/"},
		{Title: "The New Stack — Cloud Native", URL: "https://thenewstack.io/"},
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
