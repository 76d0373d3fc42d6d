package report

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// AgreementConfig holds the hand-tuned constants behind the raw-text
// agreement analysis. The keyword lists and similarity threshold have no
// derivation beyond inspection of real reviews; tests pin the current
// behavior rather than validate the values.
type AgreementConfig struct {
	MinParagraphLen     int
	NameBonus           int
	SimilarityThreshold float64
	BucketCap           int
	MaxFindingLen       int
	Categories          []KeywordCategory
}

// KeywordCategory is one static classification area with its keyword list.
// These areas are deliberately decoupled from the LLM-derived report
// categories: they score raw review text only.
type KeywordCategory struct {
	Name     string
	Keywords []string
}

// DefaultAgreementConfig returns the analyzer constants used in production.
func DefaultAgreementConfig() AgreementConfig {
	return AgreementConfig{
		MinParagraphLen:     20,
		NameBonus:           3,
		SimilarityThreshold: 0.7,
		BucketCap:           3,
		MaxFindingLen:       80,
		Categories: []KeywordCategory{
			{Name: "Security", Keywords: []string{
				"security", "vulnerability", "injection", "sanitize", "escape",
				"authentication", "authorization", "credential", "secret", "xss", "csrf",
			}},
			{Name: "Performance", Keywords: []string{
				"performance", "slow", "latency", "optimize", "cache", "memory",
				"allocation", "leak", "n+1", "bottleneck", "inefficient",
			}},
			{Name: "Code Quality", Keywords: []string{
				"readability", "naming", "duplication", "refactor", "complexity",
				"style", "convention", "lint", "dead code", "magic number",
			}},
			{Name: "Architecture", Keywords: []string{
				"architecture", "coupling", "cohesion", "dependency", "layering",
				"abstraction", "interface", "module", "separation", "design",
			}},
			{Name: "Error Handling", Keywords: []string{
				"error handling", "exception", "panic", "recover", "ignored error",
				"unchecked", "retry", "failure", "edge case",
			}},
			{Name: "Testing", Keywords: []string{
				"test", "coverage", "mock", "assertion", "regression", "unit test",
				"integration test", "flaky",
			}},
			{Name: "Documentation", Keywords: []string{
				"documentation", "comment", "readme", "docstring", "undocumented",
				"changelog", "example",
			}},
		},
	}
}

// AnalyzeModelAgreement classifies raw review paragraphs into a fixed
// category set and buckets extracted finding strings by how many models
// mention them: all models -> high agreement, two or more -> partial,
// exactly one -> disagreement. Deterministic for identical input.
func AnalyzeModelAgreement(reviews []string, modelIDs []string) []CategoryAgreementAnalysis {
	return AnalyzeModelAgreementWith(DefaultAgreementConfig(), reviews, modelIDs)
}

// mention is one extracted finding string attributed to a set of models.
type mention struct {
	text   string
	models map[string]bool
	order  int
}

// AnalyzeModelAgreementWith is AnalyzeModelAgreement with explicit constants.
func AnalyzeModelAgreementWith(cfg AgreementConfig, reviews []string, modelIDs []string) []CategoryAgreementAnalysis {
	totalModels := len(modelIDs)

	// category name -> finding text -> mention
	mentions := make(map[string]map[string]*mention, len(cfg.Categories))
	orders := make(map[string][]*mention, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		mentions[cat.Name] = make(map[string]*mention)
	}

	for i, review := range reviews {
		if i >= len(modelIDs) {
			break
		}
		modelID := modelIDs[i]
		for _, para := range splitParagraphs(review, cfg.MinParagraphLen) {
			catName := classifyParagraph(cfg, para)
			if catName == "" {
				continue
			}
			finding := extractFindingText(para, cfg.MaxFindingLen)
			if finding == "" {
				continue
			}
			byText := mentions[catName]
			m, ok := byText[finding]
			if !ok {
				// Merge near-duplicate phrasings into the first occurrence.
				if dup := findSimilar(orders[catName], finding, cfg.SimilarityThreshold); dup != nil {
					m = dup
				} else {
					m = &mention{text: finding, models: make(map[string]bool), order: len(orders[catName])}
					byText[finding] = m
					orders[catName] = append(orders[catName], m)
				}
			}
			m.models[modelID] = true
		}
	}

	analyses := make([]CategoryAgreementAnalysis, 0, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		analysis := CategoryAgreementAnalysis{
			Area:             cat.Name,
			HighAgreement:    []string{},
			PartialAgreement: []string{},
			Disagreement:     []string{},
		}
		for _, m := range orders[cat.Name] {
			// A single mention is always disagreement, even in a single-model
			// run where one mention is also every model.
			switch n := len(m.models); {
			case n == 1:
				analysis.Disagreement = append(analysis.Disagreement, m.text)
			case totalModels > 0 && n == totalModels:
				analysis.HighAgreement = append(analysis.HighAgreement, m.text)
			case n >= 2:
				analysis.PartialAgreement = append(analysis.PartialAgreement, m.text)
			}
		}
		analysis.HighAgreement = capShortestFirst(analysis.HighAgreement, cfg.BucketCap)
		analysis.PartialAgreement = capShortestFirst(analysis.PartialAgreement, cfg.BucketCap)
		analysis.Disagreement = capShortestFirst(analysis.Disagreement, cfg.BucketCap)
		analyses = append(analyses, analysis)
	}
	return analyses
}

// CalculateAgreementStats counts findings per report category by agreement
// tier, derived from Finding.ModelAgreement. The tiers mirror the analyzer
// buckets: AllModels means every model, TwoModels covers the whole partial
// tier (two or more models short of all of them), OneModel a single mention.
func CalculateAgreementStats(findingsByCategory map[string][]Finding, categories []Category, totalModels int) []AgreementStatistics {
	stats := make([]AgreementStatistics, 0, len(categories))
	for _, cat := range categories {
		s := AgreementStatistics{Category: cat.Name}
		for _, f := range findingsByCategory[cat.ID] {
			switch n := f.AgreementCount(); {
			case n == 1:
				s.OneModel++
			case totalModels > 0 && n == totalModels:
				s.AllModels++
			case n >= 2:
				s.TwoModels++
			}
		}
		stats = append(stats, s)
	}
	return stats
}

func splitParagraphs(text string, minLen int) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if len(p) >= minLen {
			out = append(out, p)
		}
	}
	return out
}

// classifyParagraph returns the best-scoring category name, or "" when no
// keyword matches at all.
func classifyParagraph(cfg AgreementConfig, para string) string {
	lower := strings.ToLower(para)
	bestName := ""
	bestScore := 0
	for _, cat := range cfg.Categories {
		score := 0
		for _, kw := range cat.Keywords {
			score += countWholeWord(lower, kw)
		}
		if strings.Contains(lower, strings.ToLower(cat.Name)) {
			score += cfg.NameBonus
		}
		if score > bestScore {
			bestScore = score
			bestName = cat.Name
		}
	}
	return bestName
}

func countWholeWord(text, word string) int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return len(re.FindAllStringIndex(text, -1))
}

var indicatorPhrases = []string{"should", "recommend", "consider", "issue", "problem", "missing", "lacks"}

var boilerplatePrefixes = []string{
	"the code ", "this code ", "the codebase ", "i noticed ", "i found ",
	"there is ", "there are ", "it seems ", "it appears ",
}

// extractFindingText reduces a paragraph to one concise finding string:
// bullet content first, then the first indicator sentence, then the first
// short sentence, then a truncated prefix.
func extractFindingText(para string, maxLen int) string {
	if text := firstBullet(para); text != "" {
		return normalizeFinding(text, maxLen)
	}

	sentences := splitSentences(para)
	for _, s := range sentences {
		lower := strings.ToLower(s)
		for _, ind := range indicatorPhrases {
			if strings.Contains(lower, ind) {
				return normalizeFinding(s, maxLen)
			}
		}
	}
	for _, s := range sentences {
		if len(s) <= maxLen {
			return normalizeFinding(s, maxLen)
		}
	}
	return normalizeFinding(para, maxLen)
}

func firstBullet(para string) string {
	for _, line := range strings.Split(para, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range []string{"- ", "* ", "+ "} {
			if strings.HasPrefix(trimmed, prefix) {
				return strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
			}
		}
	}
	return ""
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range regexp.MustCompile(`[.!?]\s+`).Split(text, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

var markdownNoise = regexp.MustCompile("[*_`#>\\[\\]]")

func normalizeFinding(text string, maxLen int) string {
	s := markdownNoise.ReplaceAllString(text, "")
	s = strings.TrimSpace(strings.Join(strings.Fields(s), " "))
	lower := strings.ToLower(s)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return ""
	}
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimSpace(s[:cut])
		if s == "" {
			return ""
		}
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// findSimilar locates an existing mention whose Jaccard similarity over
// words longer than 3 characters exceeds the threshold.
func findSimilar(existing []*mention, text string, threshold float64) *mention {
	candidate := significantWords(text)
	if len(candidate) == 0 {
		return nil
	}
	for _, m := range existing {
		if jaccard(candidate, significantWords(m.text)) > threshold {
			return m
		}
	}
	return nil
}

func significantWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if len(w) > 3 {
			words[w] = true
		}
	}
	return words
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func capShortestFirst(items []string, limit int) []string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) < len(sorted[j]) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
