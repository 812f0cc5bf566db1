package usecase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// maxCachedPatterns bounds the compile cache; it is reset when full
const maxCachedPatterns = 256

// OutcomeStatus describes what happened when one rule was evaluated
type OutcomeStatus int

const (
	OutcomeMatched OutcomeStatus = iota
	OutcomeNoMatch
	OutcomeDisabled
	OutcomeInvalidPattern
	OutcomeTimeout
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeDisabled:
		return "disabled"
	case OutcomeInvalidPattern:
		return "invalid_pattern"
	case OutcomeTimeout:
		return "timeout"
	}
	return fmt.Sprintf("outcome(%d)", int(s))
}

// RuleOutcome is one entry of an evaluation trace
type RuleOutcome struct {
	RuleID   string
	RuleName string
	Status   OutcomeStatus
	Err      error // Set for OutcomeInvalidPattern and OutcomeTimeout
}

// MatchResult is the winning rule and the exact matched substring
type MatchResult struct {
	Rule  domain.Rule
	Text  string
	Index int // Rune offset of Text inside the message text
}

// Evaluation is the full result of running a rule set against one message.
// Trace lists every rule that was looked at, in order, up to and including the winner.
type Evaluation struct {
	Result *MatchResult
	Trace  []RuleOutcome
	FromMe bool // Message was sent by the local user and was not scanned
}

// Matched reports whether some rule matched
func (e Evaluation) Matched() bool {
	return e.Result != nil
}

// Failures returns the trace entries for rules whose pattern could not run
func (e Evaluation) Failures() []RuleOutcome {
	var out []RuleOutcome
	for _, o := range e.Trace {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// PatternTest is the result of trying a single pattern against sample text
type PatternTest struct {
	Matched bool
	Text    string
	Index   int
	Err     error // Compile or timeout error
}

// Invalid reports whether the pattern failed to compile or run
func (t PatternTest) Invalid() bool {
	return t.Err != nil
}

type compiled struct {
	re  *regexp2.Regexp
	err error
}

// Matcher applies an ordered rule set to a message; first enabled match wins.
// Patterns use a backtracking dialect with lookaround and inline flags.
type Matcher struct {
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]compiled
}

// NewMatcher creates a matcher. A zero timeout disables the per-pattern match timeout.
func NewMatcher(timeout time.Duration) *Matcher {
	return &Matcher{
		timeout: timeout,
		cache:   make(map[string]compiled),
	}
}

// Match returns the first enabled rule matching msg, in rule order
func (m *Matcher) Match(msg domain.Message, rules domain.RuleSet) (MatchResult, bool) {
	ev := m.Evaluate(msg, rules)
	if ev.Result == nil {
		return MatchResult{}, false
	}
	return *ev.Result, true
}

// Evaluate runs rules against msg and records a trace.
// Malformed or runaway patterns are non-matching and evaluation moves on.
func (m *Matcher) Evaluate(msg domain.Message, rules domain.RuleSet) Evaluation {
	if !msg.IsEligible() {
		return Evaluation{FromMe: true}
	}

	var ev Evaluation
	for _, rule := range rules {
		outcome := RuleOutcome{RuleID: rule.ID, RuleName: rule.Name}
		if !rule.IsEnabled {
			outcome.Status = OutcomeDisabled
			ev.Trace = append(ev.Trace, outcome)
			continue
		}

		text, index, ok, err := m.find(rule.Pattern, msg.Text)
		switch {
		case err != nil:
			outcome.Status = classify(err)
			outcome.Err = err
		case ok:
			outcome.Status = OutcomeMatched
			ev.Trace = append(ev.Trace, outcome)
			ev.Result = &MatchResult{Rule: rule, Text: text, Index: index}
			return ev
		default:
			outcome.Status = OutcomeNoMatch
		}
		ev.Trace = append(ev.Trace, outcome)
	}
	return ev
}

// TestPattern tries pattern against text without touching any rule set
func (m *Matcher) TestPattern(pattern, text string) PatternTest {
	matched, index, ok, err := m.find(pattern, text)
	return PatternTest{Matched: ok, Text: matched, Index: index, Err: err}
}

func (m *Matcher) find(pattern, text string) (string, int, bool, error) {
	re, err := m.compile(pattern)
	if err != nil {
		return "", 0, false, err
	}
	match, err := re.FindStringMatch(text)
	if err != nil {
		return "", 0, false, &timeoutError{err: err}
	}
	if match == nil {
		return "", 0, false, nil
	}
	return match.String(), match.Index, true, nil
}

func (m *Matcher) compile(pattern string) (*regexp2.Regexp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.cache[pattern]; ok {
		return c.re, c.err
	}
	if len(m.cache) >= maxCachedPatterns {
		m.cache = make(map[string]compiled)
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		err = &compileError{pattern: pattern, err: err}
	} else if m.timeout > 0 {
		re.MatchTimeout = m.timeout
	}
	m.cache[pattern] = compiled{re: re, err: err}
	return re, err
}

type compileError struct {
	pattern string
	err     error
}

func (e *compileError) Error() string {
	return fmt.Sprintf("compile pattern %q: %v", e.pattern, e.err)
}

func (e *compileError) Unwrap() error { return e.err }

type timeoutError struct {
	err error
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("match: %v", e.err)
}

func (e *timeoutError) Unwrap() error { return e.err }

func classify(err error) OutcomeStatus {
	var te *timeoutError
	if errors.As(err, &te) {
		return OutcomeTimeout
	}
	return OutcomeInvalidPattern
}
