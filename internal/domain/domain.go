// Package domain defines the closed tag types and sentinel errors shared by
// the simulator packages: ball and bucket colours, scoring rules, decision
// rules, optimizer algorithms, and report ordering. Every tag is a typed
// constant with a parse helper so unknown values are rejected at
// configuration time rather than at resolution time.
package domain

import "fmt"

// Ball is a noisy observation emitted by a bucket. Its integer value is the
// outcome index used by the scoring rules (0 = red, 1 = blue).
type Ball int

const (
	BallRed Ball = iota
	BallBlue
)

// String returns the lowercase tag name.
func (b Ball) String() string {
	switch b {
	case BallRed:
		return "red"
	case BallBlue:
		return "blue"
	default:
		return fmt.Sprintf("Ball(%d)", int(b))
	}
}

// BucketColour is the hidden binary state of a bucket, drawn once at
// construction. Its integer value is the materialised outcome index
// (0 = red, 1 = blue).
type BucketColour int

const (
	BucketColourRed BucketColour = iota
	BucketColourBlue
)

// Index returns the outcome index used when resolving a market against this
// realised colour.
func (c BucketColour) Index() int { return int(c) }

// String returns the lowercase tag name.
func (c BucketColour) String() string {
	switch c {
	case BucketColourRed:
		return "red"
	case BucketColourBlue:
		return "blue"
	default:
		return fmt.Sprintf("BucketColour(%d)", int(c))
	}
}

// ParseBucketColour converts a config tag into a BucketColour.
func ParseBucketColour(s string) (BucketColour, error) {
	switch s {
	case "red":
		return BucketColourRed, nil
	case "blue":
		return BucketColourBlue, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBucketColour, s)
	}
}

// ScoreFunction selects the proper scoring rule used to resolve a market.
type ScoreFunction int

const (
	ScoreFunctionLog ScoreFunction = iota
	ScoreFunctionQuadratic
)

// String returns the lowercase tag name.
func (f ScoreFunction) String() string {
	switch f {
	case ScoreFunctionLog:
		return "log"
	case ScoreFunctionQuadratic:
		return "quadratic"
	default:
		return fmt.Sprintf("ScoreFunction(%d)", int(f))
	}
}

// ParseScoreFunction converts a config tag into a ScoreFunction.
func ParseScoreFunction(s string) (ScoreFunction, error) {
	switch s {
	case "log":
		return ScoreFunctionLog, nil
	case "quadratic":
		return ScoreFunctionQuadratic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScoreFunction, s)
	}
}

// DecisionRule selects how the decision market picks the option whose
// conditional market resolves.
type DecisionRule int

const (
	DecisionRuleStochastic DecisionRule = iota
	DecisionRuleDeterministic
)

// String returns the lowercase tag name.
func (r DecisionRule) String() string {
	switch r {
	case DecisionRuleStochastic:
		return "stochastic"
	case DecisionRuleDeterministic:
		return "deterministic"
	default:
		return fmt.Sprintf("DecisionRule(%d)", int(r))
	}
}

// ParseDecisionRule converts a config tag into a DecisionRule.
func ParseDecisionRule(s string) (DecisionRule, error) {
	switch s {
	case "stochastic":
		return DecisionRuleStochastic, nil
	case "deterministic":
		return DecisionRuleDeterministic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDecisionRule, s)
	}
}

// Algorithm selects the gradient-step variant used by the learning agents.
type Algorithm int

const (
	AlgorithmRegular Algorithm = iota
	AlgorithmMomentum
	AlgorithmAdam
)

// String returns the lowercase tag name.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmRegular:
		return "regular"
	case AlgorithmMomentum:
		return "momentum"
	case AlgorithmAdam:
		return "adam"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm converts a config tag into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "regular":
		return AlgorithmRegular, nil
	case "momentum":
		return AlgorithmMomentum, nil
	case "adam":
		return AlgorithmAdam, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// ReportOrder selects the order in which agents report during a round.
type ReportOrder int

const (
	ReportOrderFixed ReportOrder = iota
	ReportOrderRandom
)

// String returns the lowercase tag name.
func (o ReportOrder) String() string {
	switch o {
	case ReportOrderFixed:
		return "fixed"
	case ReportOrderRandom:
		return "random"
	default:
		return fmt.Sprintf("ReportOrder(%d)", int(o))
	}
}

// ParseReportOrder converts a config tag into a ReportOrder.
func ParseReportOrder(s string) (ReportOrder, error) {
	switch s {
	case "fixed":
		return ReportOrderFixed, nil
	case "random":
		return ReportOrderRandom, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownReportOrder, s)
	}
}
