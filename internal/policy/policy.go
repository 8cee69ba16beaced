// Package policy decides whether a failed payment attempt may retry and how
// long to wait before it does. The wait schedule is a pure function; retry
// eligibility is evaluated through configurable rule expressions.
package policy

import (
	"fmt"
	"time"

	"github.com/Knetic/govaluate"

	"github.com/yourorg/order-service/internal/adapter"
)

// Backoff is the exponential wait schedule between attempts.
type Backoff struct {
	Base        time.Duration
	Multiplier  float64
	Cap         time.Duration
	MaxAttempts int
}

// DefaultBackoff returns the production schedule: 1s base, doubling, capped
// at 10s, five attempts total (waits of 1s, 2s, 4s, 8s between them).
func DefaultBackoff() Backoff {
	return Backoff{
		Base:        1000 * time.Millisecond,
		Multiplier:  2,
		Cap:         10000 * time.Millisecond,
		MaxAttempts: 5,
	}
}

// NextDelay computes the wait after the given 1-indexed attempt. Pure:
// min(base * multiplier^(attempt-1), cap).
func (b Backoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(b.Base)
	for i := 1; i < attempt; i++ {
		delay *= b.Multiplier
		if delay >= float64(b.Cap) {
			return b.Cap
		}
	}
	if delay > float64(b.Cap) {
		return b.Cap
	}
	return time.Duration(delay)
}

// RuleConfig names a retry rule and its expression. Expressions see the
// parameters `classification` (the outcome string), `attempt` (1-indexed)
// and `max_attempts`.
type RuleConfig struct {
	Name       string
	Expression string
}

// DefaultRules allows retrying only retryable failures while attempts remain.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{
			Name:       "RetryTransientFailures",
			Expression: "classification == 'RETRYABLE' && attempt < max_attempts",
		},
	}
}

type compiledRule struct {
	name string
	expr *govaluate.EvaluableExpression
}

// Enforcer evaluates the retry rules for a failed attempt. A retry is allowed
// when every rule evaluates to true.
type Enforcer struct {
	rules       []compiledRule
	maxAttempts int
}

// NewEnforcer compiles the rule expressions up front so a bad rule fails at
// startup, not mid-payment.
func NewEnforcer(rules []RuleConfig, maxAttempts int) (*Enforcer, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, rc := range rules {
		expr, err := govaluate.NewEvaluableExpression(rc.Expression)
		if err != nil {
			return nil, fmt.Errorf("compile retry rule %q: %w", rc.Name, err)
		}
		compiled = append(compiled, compiledRule{name: rc.Name, expr: expr})
	}
	return &Enforcer{rules: compiled, maxAttempts: maxAttempts}, nil
}

// AllowRetry reports whether the attempt with the given outcome may be
// followed by another one.
func (e *Enforcer) AllowRetry(outcome adapter.Outcome, attempt int) (bool, error) {
	params := map[string]interface{}{
		"classification": string(outcome),
		"attempt":        float64(attempt),
		"max_attempts":   float64(e.maxAttempts),
	}
	for _, rule := range e.rules {
		result, err := rule.expr.Evaluate(params)
		if err != nil {
			return false, fmt.Errorf("evaluate retry rule %q: %w", rule.name, err)
		}
		allowed, ok := result.(bool)
		if !ok {
			return false, fmt.Errorf("retry rule %q did not evaluate to a boolean", rule.name)
		}
		if !allowed {
			return false, nil
		}
	}
	return true, nil
}
