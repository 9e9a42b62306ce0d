package scoreboard

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrMissingStatusSection = errors.New("score line has no status section")
	ErrUnresolvedScores     = errors.New("score line did not resolve to two sides")
)

// Stage is the lifecycle stage derived from a line's status section.
type Stage string

const (
	StageUpcoming   Stage = "upcoming"
	StageInProgress Stage = "in_progress"
	StageFinished   Stage = "finished"
)

var (
	// A game clock followed by a period marker. Overtime counts: "00:00 IN OT"
	// must classify as in progress, not as a time of day.
	inProgressPattern = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s+IN\s+(?:OT|\d+(?:ST|ND|RD|TH)?)\b`)
	upcomingPattern   = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:AM|PM)\b`)
	scorePairPattern  = regexp.MustCompile(`\b([A-Za-z]+)\s+(\d+)\b`)
)

// SplitLine splits an extracted game line at the first "(" into its scores
// section and status section. A line without "(" is malformed input,
// distinguishable from the legitimate no-game case.
func SplitLine(line string) (scores, status string, err error) {
	idx := strings.Index(line, "(")
	if idx < 0 {
		return "", "", ErrMissingStatusSection
	}

	scores = strings.TrimSpace(line[:idx])
	status = strings.TrimSpace(strings.TrimSuffix(line[idx+1:], ")"))
	return scores, status, nil
}

// Classify maps a status section to a lifecycle stage. In-progress is checked
// before upcoming because an overtime clock superficially resembles a
// time of day. Anything unrecognized is a terminal marker.
func Classify(status string) Stage {
	switch {
	case inProgressPattern.MatchString(status):
		return StageInProgress
	case upcomingPattern.MatchString(status):
		return StageUpcoming
	default:
		return StageFinished
	}
}

// ResolveScores scans the scores section for <name> <digits> pairs and
// attributes each pair to the tracked team or the opponent by case-insensitive
// name equality. Exactly one pair per side must resolve; ambiguous lines fail
// rather than guess.
func ResolveScores(scores, teamName string) (tracked, opponent int, err error) {
	pairs := scorePairPattern.FindAllStringSubmatch(scores, -1)
	if len(pairs) != 2 {
		return 0, 0, ErrUnresolvedScores
	}

	trackedSeen := false
	opponentSeen := false
	for _, pair := range pairs {
		value, convErr := strconv.Atoi(pair[2])
		if convErr != nil {
			return 0, 0, ErrUnresolvedScores
		}

		if strings.EqualFold(pair[1], teamName) {
			if trackedSeen {
				return 0, 0, ErrUnresolvedScores
			}
			tracked = value
			trackedSeen = true
			continue
		}

		if opponentSeen {
			return 0, 0, ErrUnresolvedScores
		}
		opponent = value
		opponentSeen = true
	}

	if !trackedSeen || !opponentSeen {
		return 0, 0, ErrUnresolvedScores
	}

	return tracked, opponent, nil
}
