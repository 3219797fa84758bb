// Package resolver turns the pipeline's on-disk result artifact into a
// complete, renderable run result.
//
// Fallback granularity is a contract:
//   - whole-result fallback when the process failed or the artifact is
//     unreadable / not valid JSON;
//   - per-category fallback when one of the agent blobs (posts,
//     compliance, research) is missing or unparseable;
//   - per-field fallback inside outputs, so channels present in the
//     artifact are kept even when siblings are missing.
//
// Resolution never fails; it always returns usable content.
package resolver

import (
	"encoding/json"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/trendsurf-copilot/internal/schemas"
	"github.com/jonathan/trendsurf-copilot/internal/types"
)

// maxScrapedSources caps how many URL-shaped substrings are promoted to
// source entries when the research blob has no structured sources list.
const maxScrapedSources = 3

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Resolution is the resolver's output, always fully populated.
type Resolution struct {
	Outputs    types.Outputs
	Compliance types.Compliance
	Sources    []types.Source
	Artifacts  map[string]string
	Fallback   bool // whole-result fallback was used
}

// artifact mirrors the result file written by the pipeline. The agent
// output fields are markdown-fenced JSON blobs.
type artifact struct {
	Topic      string `json:"topic"`
	Research   string `json:"research"`
	Compliance string `json:"compliance"`
	Posts      string `json:"posts"`
	Review     string `json:"review"`
}

type postsBlob struct {
	Posts map[string]struct {
		Content string `json:"content"`
	} `json:"posts"`
	DisclaimersIncluded []string `json:"disclaimers_included"`
}

type complianceBlob struct {
	Checklist struct {
		VoiceTone            bool `json:"voice_tone"`
		NoProhibitedLanguage bool `json:"no_prohibited_language"`
		ClaimsSourced        bool `json:"claims_sourced"`
		DisclaimersPresent   bool `json:"disclaimers_present"`
		PlatformCompliant    bool `json:"platform_compliant"`
		AudienceAppropriate  bool `json:"audience_appropriate"`
	} `json:"checklist"`
}

type researchBlob struct {
	Sources []types.Source `json:"sources"`
}

// Resolve reads the result artifact at artifactPath and extracts the
// per-channel outputs, compliance checklist and sources. A non-zero
// exitCode skips the artifact entirely and yields deterministic
// fallback content for the topic. schemaPath may be empty to skip the
// schema gate.
func Resolve(topic string, exitCode int, artifactPath, schemaPath string) Resolution {
	res := Resolution{Artifacts: ArtifactPaths()}

	if exitCode != 0 {
		return fallbackResolution(topic, res)
	}

	raw, err := os.ReadFile(artifactPath)
	if err != nil {
		log.Printf("[resolver] cannot read result artifact %s: %v, falling back", artifactPath, err)
		return fallbackResolution(topic, res)
	}

	if schemaPath != "" {
		if err := schemas.ValidateBytes(schemaPath, raw); err != nil {
			log.Printf("[resolver] result artifact failed schema validation: %v, falling back", err)
			return fallbackResolution(topic, res)
		}
	}

	var art artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		log.Printf("[resolver] result artifact is not valid JSON: %v, falling back", err)
		return fallbackResolution(topic, res)
	}

	posts := unwrapPosts(art.Posts)
	res.Outputs = extractOutputs(topic, posts)
	res.Compliance = extractCompliance(art.Compliance, posts)
	res.Sources = extractSourceList(art.Research)
	return res
}

func fallbackResolution(topic string, res Resolution) Resolution {
	res.Outputs = FallbackOutputs(topic)
	res.Compliance = FallbackCompliance()
	res.Sources = FallbackSources()
	res.Fallback = true
	return res
}

// ArtifactPaths returns the fixed mapping of logical artifact names to
// the relative paths the pipeline writes. The paths are informational
// only and not guaranteed to exist.
func ArtifactPaths() map[string]string {
	return map[string]string{
		"researchBriefPath":  "output/01_research_brief.md",
		"brandReviewPath":    "output/02_brand_guard_review.md",
		"draftPostsPath":     "output/03_draft_posts.md",
		"finalReviewPath":    "output/04_final_review.md",
		"pipelineResultPath": "output/pipeline_result.json",
	}
}

// UnwrapJSON strips leading/trailing markdown code fences from an agent
// output blob so the inner JSON can be parsed.
func UnwrapJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func unwrapPosts(blob string) *postsBlob {
	if blob == "" {
		return nil
	}
	var posts postsBlob
	if err := json.Unmarshal([]byte(UnwrapJSON(blob)), &posts); err != nil {
		return nil
	}
	return &posts
}

// extractOutputs maps the parsed posts blob to the three channels.
// Each missing channel degrades to its canned counterpart alone.
func extractOutputs(topic string, posts *postsBlob) types.Outputs {
	fallback := FallbackOutputs(topic)
	if posts == nil || len(posts.Posts) == 0 {
		return fallback
	}

	out := fallback
	if p, ok := posts.Posts["linkedin"]; ok && p.Content != "" {
		out.LinkedIn = types.ChannelOutput{Text: p.Content}
	}
	if p, ok := posts.Posts["twitter"]; ok && p.Content != "" {
		out.X = types.ChannelOutput{Text: p.Content, CharCount: utf8.RuneCountInString(p.Content)}
	}
	if p, ok := posts.Posts["teams"]; ok && p.Content != "" {
		out.Teams = types.ChannelOutput{Text: p.Content}
	}
	return out
}

// extractCompliance builds the six-item checklist from the compliance
// blob's named booleans. An absent or unparseable blob yields the
// fully-canned all-passing checklist.
func extractCompliance(blob string, posts *postsBlob) types.Compliance {
	if blob == "" {
		return FallbackCompliance()
	}
	var parsed complianceBlob
	if err := json.Unmarshal([]byte(UnwrapJSON(blob)), &parsed); err != nil {
		return FallbackCompliance()
	}

	cl := parsed.Checklist
	compliance := types.Compliance{
		Checklist: []types.ChecklistItem{
			checkRow("Voice & Tone", cl.VoiceTone, "Professional and authoritative", "Needs adjustment"),
			checkRow("No Prohibited Language", cl.NoProhibitedLanguage, "All content approved", "Prohibited terms found"),
			checkRow("Claims Sourced", cl.ClaimsSourced, "All claims verified", "Unsourced claims found"),
			checkRow("Disclaimers Present", cl.DisclaimersPresent, "Required disclaimers included", "Missing disclaimers"),
			checkRow("Platform Compliant", cl.PlatformCompliant, "Character limits respected", "Platform limits exceeded"),
			checkRow("Audience Appropriate", cl.AudienceAppropriate, "Suitable for target audience", "Audience mismatch"),
		},
	}

	if posts != nil && len(posts.DisclaimersIncluded) > 0 {
		compliance.Disclaimers = posts.DisclaimersIncluded
	} else {
		compliance.Disclaimers = []string{
			"This is informational only and does not constitute legal or financial advice.",
			"AI-generated content has been reviewed by our compliance team.",
		}
	}
	return compliance
}

func checkRow(item string, passed bool, passNote, failNote string) types.ChecklistItem {
	if passed {
		return types.ChecklistItem{Item: item, Status: "pass", Notes: passNote}
	}
	return types.ChecklistItem{Item: item, Status: "fail", Notes: failNote}
}

// extractSourceList prefers the structured sources list in the research
// blob, then URL-shaped substrings scraped from the raw text, then the
// canned defaults.
func extractSourceList(blob string) []types.Source {
	if blob != "" {
		var parsed researchBlob
		if err := json.Unmarshal([]byte(UnwrapJSON(blob)), &parsed); err == nil && len(parsed.Sources) > 0 {
			return parsed.Sources
		}
	}
	return ExtractSources(blob)
}

// ExtractSources scans raw research text for URLs and synthesizes up to
// three numbered source entries, falling back to the canned defaults
// when none are found.
func ExtractSources(researchText string) []types.Source {
	urls := urlPattern.FindAllString(researchText, maxScrapedSources)

	sources := make([]types.Source, 0, len(urls))
	for i, u := range urls {
		sources = append(sources, types.Source{
			Title: "Source " + strconv.Itoa(i+1),
			URL:   u,
		})
	}
	if len(sources) > 0 {
		return sources
	}
	return FallbackSources()
}
