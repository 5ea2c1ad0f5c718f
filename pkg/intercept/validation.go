package intercept

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Rule validates one positional argument. Check may return a canonicalized
// replacement for the argument (trimmed, upper-cased, coerced); on failure
// the returned error describes the violation.
type Rule struct {
	ArgIndex int
	Label    string
	Check    func(v any) (any, error)
}

// FieldError is a single rule failure.
type FieldError struct {
	Label   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Message)
}

// ValidationErrors aggregates every failing rule of a call. Rules are
// evaluated independently; one failure never short-circuits the rest.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validation evaluates every rule against the current arguments before the
// wrapped handler runs. Canonicalized values replace their arguments on
// success. If any rule fails, all failures are aggregated, reported once,
// and returned; the handler is never invoked.
func Validation(reporter Reporter, rules ...Rule) Interceptor {
	return func(next Handler) Handler {
		return func(ctx context.Context, args []any) (any, error) {
			canonical := make([]any, len(args))
			copy(canonical, args)

			var failures ValidationErrors
			for _, r := range rules {
				if r.ArgIndex < 0 || r.ArgIndex >= len(args) {
					failures = append(failures, FieldError{
						Label:   r.Label,
						Message: fmt.Sprintf("argument index %d out of range", r.ArgIndex),
					})
					continue
				}
				v, err := r.Check(canonical[r.ArgIndex])
				if err != nil {
					failures = append(failures, FieldError{Label: r.Label, Message: err.Error()})
					continue
				}
				canonical[r.ArgIndex] = v
			}

			if len(failures) > 0 {
				if reporter != nil {
					reporter.Capture(ctx, failures, map[string]string{"stage": "validation"})
				}
				return nil, failures
			}
			return next(ctx, canonical)
		}
	}
}

// Tag builds a rule from a validator/v10 tag expression, e.g.
// Tag(0, "customerId", "required,uuid").
func Tag(index int, label, tag string) Rule {
	return Rule{
		ArgIndex: index,
		Label:    label,
		Check: func(v any) (any, error) {
			if err := validate.Var(v, tag); err != nil {
				return nil, fmt.Errorf("failed %q", tag)
			}
			return v, nil
		},
	}
}

// NonEmptyString trims the argument and rejects empty values.
func NonEmptyString(index int, label string) Rule {
	return Rule{
		ArgIndex: index,
		Label:    label,
		Check: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", v)
			}
			s = strings.TrimSpace(s)
			if s == "" {
				return nil, fmt.Errorf("must not be empty")
			}
			return s, nil
		},
	}
}

// Positive rejects non-positive integer amounts.
func Positive(index int, label string) Rule {
	return Rule{
		ArgIndex: index,
		Label:    label,
		Check: func(v any) (any, error) {
			n, ok := toInt64(v)
			if !ok {
				return nil, fmt.Errorf("expected integer, got %T", v)
			}
			if n <= 0 {
				return nil, fmt.Errorf("must be greater than zero")
			}
			return n, nil
		},
	}
}

// Currency canonicalizes to an upper-case 3-letter ISO-4217 code.
func Currency(index int, label string) Rule {
	return Rule{
		ArgIndex: index,
		Label:    label,
		Check: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", v)
			}
			s = strings.ToUpper(strings.TrimSpace(s))
			if err := validate.Var(s, "len=3,iso4217"); err != nil {
				return nil, fmt.Errorf("must be a 3-letter ISO-4217 code")
			}
			return s, nil
		},
	}
}

// Custom wraps an arbitrary check as a rule.
func Custom(index int, label string, check func(v any) (any, error)) Rule {
	return Rule{ArgIndex: index, Label: label, Check: check}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
