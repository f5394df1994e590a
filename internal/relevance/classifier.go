// Package relevance decides whether a discovered companion document
// actually describes a given data file.
//
// Classification is deterministic where the evidence is strong (many or
// zero filename mentions) and delegates only the ambiguous middle band
// to an external Judge. Judge failures degrade to UNCERTAIN rather than
// failing indexing.
package relevance

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fairsearch/internal/logger"
)

// Label is the relevance verdict for one companion candidate.
type Label string

const (
	LabelRelevant    Label = "RELEVANT"
	LabelNotRelevant Label = "NOT_RELEVANT"
	LabelUncertain   Label = "UNCERTAIN"
)

// Mention thresholds for the deterministic fast paths.
const (
	relevantMentions = 3
	previewLength    = 500
)

// Classification is the outcome for one candidate document.
type Classification struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// JudgmentContext is the evidence handed to a Judge for an ambiguous
// candidate.
type JudgmentContext struct {
	DataFilename      string
	CandidateFilename string
	ContentPreview    string
	MentionCount      int
}

// Judgment is a Judge's verdict. Label must be one of the three labels.
type Judgment struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Judge resolves ambiguous candidates. Implementations may call external
// services; errors are tolerated by the classifier.
type Judge interface {
	Classify(ctx context.Context, jc JudgmentContext) (Judgment, error)
}

// Report aggregates classification outcomes for one data file.
type Report struct {
	Relevant      []string `json:"relevant"`
	Uncertain     []string `json:"uncertain"`
	NotRelevant   []string `json:"not_relevant"`
	TotalExamined int      `json:"total_examined"`
}

// Classifier assigns relevance labels to companion candidates.
type Classifier struct {
	judge Judge
}

// NewClassifier creates a classifier. A nil judge is valid; ambiguous
// candidates are then labeled UNCERTAIN.
func NewClassifier(judge Judge) *Classifier {
	return &Classifier{judge: judge}
}

// CountMentions counts case-insensitive occurrences of the data file's
// full name and of its stem, summed independently. A full-name mention
// therefore also counts as a stem mention.
func CountMentions(content, dataFilename string) int {
	lower := strings.ToLower(content)
	full := strings.ToLower(dataFilename)
	stem := strings.TrimSuffix(full, filepath.Ext(full))

	count := strings.Count(lower, full)
	if stem != full && stem != "" {
		count += strings.Count(lower, stem)
	}
	return count
}

// Classify labels one candidate document against a data file. Never
// returns an error: a failed or absent judge yields UNCERTAIN.
func (c *Classifier) Classify(ctx context.Context, dataFilename, candidatePath, content string) Classification {
	mentions := CountMentions(content, dataFilename)
	candidateName := filepath.Base(candidatePath)

	if mentions >= relevantMentions {
		return Classification{
			Label:      LabelRelevant,
			Confidence: 0.95,
			Reason:     fmt.Sprintf("mentioned %d times", mentions),
		}
	}

	isReadme := strings.HasPrefix(strings.ToLower(candidateName), "readme")
	if mentions == 0 && !isReadme {
		return Classification{
			Label:      LabelNotRelevant,
			Confidence: 0.9,
			Reason:     "no mention of data file",
		}
	}

	if c.judge == nil {
		return Classification{
			Label:      LabelUncertain,
			Confidence: 0.3,
			Reason:     "ambiguous and no judge configured",
		}
	}

	judgment, err := c.judge.Classify(ctx, JudgmentContext{
		DataFilename:      dataFilename,
		CandidateFilename: candidateName,
		ContentPreview:    preview(content),
		MentionCount:      mentions,
	})
	if err != nil {
		logger.Warn("relevance judgment failed for %s: %v", candidateName, err)
		return Classification{
			Label:      LabelUncertain,
			Confidence: 0.3,
			Reason:     fmt.Sprintf("judgment failed: %v", err),
		}
	}

	return Classification{
		Label:      normalizeLabel(judgment.Label),
		Confidence: clampConfidence(judgment.Confidence),
		Reason:     judgment.Reason,
	}
}

// Tally adds one classification outcome to the report.
func (r *Report) Tally(path string, cls Classification) {
	r.TotalExamined++
	switch cls.Label {
	case LabelRelevant:
		r.Relevant = append(r.Relevant, path)
	case LabelNotRelevant:
		r.NotRelevant = append(r.NotRelevant, path)
	default:
		r.Uncertain = append(r.Uncertain, path)
	}
}

func preview(content string) string {
	if len(content) > previewLength {
		return content[:previewLength]
	}
	return content
}

// normalizeLabel maps unrecognized judge output to UNCERTAIN.
func normalizeLabel(label Label) Label {
	switch Label(strings.ToUpper(string(label))) {
	case LabelRelevant:
		return LabelRelevant
	case LabelNotRelevant:
		return LabelNotRelevant
	default:
		return LabelUncertain
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
