package match

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrBadScore = errors.New("invalid score")

var scorePattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// Score é um placar final
type Score struct {
	Home int
	Away int
}

// ParseScore lê "<int>-<int>" (ex.: "2-1"); qualquer outro formato é ErrBadScore
func ParseScore(raw string) (Score, error) {
	m := scorePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Score{}, fmt.Errorf("%w: %q", ErrBadScore, raw)
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return Score{}, fmt.Errorf("%w: %q", ErrBadScore, raw)
	}
	a, err := strconv.Atoi(m[2])
	if err != nil {
		return Score{}, fmt.Errorf("%w: %q", ErrBadScore, raw)
	}
	return Score{Home: h, Away: a}, nil
}

func (s Score) Total() int { return s.Home + s.Away }

// Outcome determina vitória da casa, de fora ou empate
func (s Score) Outcome() Outcome {
	switch {
	case s.Home > s.Away:
		return OutcomeHome
	case s.Away > s.Home:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

func (s Score) String() string { return fmt.Sprintf("%d-%d", s.Home, s.Away) }
