package alias

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProvenanceMergeDisplay = "merge_display"
	ProvenanceMergeAlias   = "merge_alias"
	// ProvenanceCandidateHit and ProvenanceFuzzyHit pin a name that resolved
	// through a candidate or fuzzy lookup to the team it resolved to.
	ProvenanceCandidateHit = "candidate_hit"
	ProvenanceFuzzyHit     = "fuzzy_hit"
)

// Alias maps normalized name text to the team that owns it.
type Alias struct {
	Text       string
	TeamID     string
	Provenance string
	Confidence float64
	CreatedAt  time.Time
}

func (a Alias) Validate() error {
	if strings.TrimSpace(a.Text) == "" {
		return fmt.Errorf("alias text is required")
	}
	if a.TeamID == "" {
		return fmt.Errorf("alias %q has no team", a.Text)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("alias %q confidence %.2f out of range", a.Text, a.Confidence)
	}
	return nil
}

// ConfidenceFor scores a normalizer candidate tag. Short forms drop the club
// name and are the least specific.
func ConfidenceFor(tag string) float64 {
	switch {
	case tag == "full":
		return 1
	case strings.HasPrefix(tag, "full_"):
		return 0.95
	case tag == ProvenanceMergeDisplay, tag == ProvenanceMergeAlias:
		return 0.9
	case strings.HasPrefix(tag, "short"):
		return 0.7
	case tag == ProvenanceCandidateHit:
		return 0.6
	default:
		return 0.5
	}
}

type Scored struct {
	Alias Alias
	Score float64
}
