// Package rules implements the deterministic Rule Risk Extractor: a pure
// function from resolution rule text to a set of risk flags plus a
// definition-risk score. It must never read the clock, a random source, or
// locale state — identical text always yields identical output.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
)

// detector is one pattern-based rule in the catalog from spec.md §4.D.
type detector struct {
	code     string
	severity domain.Severity
	patterns []*regexp.Regexp
}

// catalog is the fixed detector set, compiled once at package init and
// treated as immutable for the process lifetime (spec.md §9).
var catalog = []detector{
	{
		code:     "SETTLEMENT_DISCRETION",
		severity: domain.SeverityHigh,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)at (?:our|the) (?:sole )?discretion`),
			regexp.MustCompile(`(?i)we may decide`),
			regexp.MustCompile(`(?i)sole judgment`),
			regexp.MustCompile(`(?i)in (?:our|the) sole judgement`),
		},
	},
	{
		code:     "AMBIGUOUS_SOURCE",
		severity: domain.SeverityMedium,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)credible sources?`),
			regexp.MustCompile(`(?i)generally accepted`),
			regexp.MustCompile(`(?i)widely reported`),
		},
	},
	{
		code:     "UNCLEAR_TIMESTAMP",
		severity: domain.SeverityMedium,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bby end of day\b`),
			regexp.MustCompile(`(?i)\bby the end of\b`),
			regexp.MustCompile(`(?i)\baround (?:noon|midnight)\b`),
			regexp.MustCompile(`(?i)\bsometime (?:in|during|before)\b`),
		},
	},
	{
		code:     "MISSING_DEFINITION",
		severity: domain.SeverityMedium,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\breaches?\b`),
			regexp.MustCompile(`(?i)\btouch(?:es)?\b`),
			regexp.MustCompile(`(?i)\bcloses?\b`),
			regexp.MustCompile(`(?i)\bofficial\b`),
		},
	},
	{
		code:     "AMBIGUOUS_PARTIAL",
		severity: domain.SeverityLow,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\breversals?\b`),
			regexp.MustCompile(`(?i)\bcorrections?\b`),
			regexp.MustCompile(`(?i)\bdelayed publication\b`),
			regexp.MustCompile(`(?i)\bpartial data\b`),
		},
	},
}

// Result is the extractor's output for one rule text.
type Result struct {
	DefinitionRiskScore float64
	Flags               []domain.RiskFlag
}

// Extract runs every detector against ruleText and returns the aggregated
// result. Detector order in the catalog determines flag order in the
// output, so repeated calls on the same text are byte-identical.
func Extract(ruleText string) Result {
	var flags []domain.RiskFlag
	var score float64

	for _, d := range catalog {
		spans := matchSpans(d, ruleText)
		if len(spans) == 0 {
			continue
		}
		flags = append(flags, domain.RiskFlag{
			Code:          d.code,
			Severity:      d.severity,
			EvidenceSpans: spans,
		})
		score += d.severity.Weight()
	}

	if score > 1 {
		score = 1
	}

	return Result{DefinitionRiskScore: score, Flags: flags}
}

// matchSpans finds every match across a detector's patterns, coalescing
// overlapping spans produced by the same detector (spec.md §4.D).
func matchSpans(d detector, text string) []domain.EvidenceSpan {
	var spans []domain.EvidenceSpan
	for _, p := range d.patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			spans = append(spans, domain.EvidenceSpan{Start: loc[0], End: loc[1]})
		}
	}
	return coalesce(spans)
}

// coalesce sorts and merges overlapping or adjacent half-open spans.
func coalesce(spans []domain.EvidenceSpan) []domain.EvidenceSpan {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	merged := []domain.EvidenceSpan{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Hash computes the content digest stored as rule_hash: a deterministic
// function of rule_text, used to detect unchanged rules without
// re-invoking the extractor (spec.md §3, scenario S6).
func Hash(ruleText string) string {
	sum := sha256.Sum256([]byte(ruleText))
	return hex.EncodeToString(sum[:])
}
