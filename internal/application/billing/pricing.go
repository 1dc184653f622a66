package billing

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// PricingStrategy is the pluggable capability spec §9 calls for: unit_price
// and total are polymorphic so an operator can swap in a discount rule
// without touching ChargeService.
type PricingStrategy interface {
	UnitPrice(userID pkgmodels.UserID) float64
	Total(userID pkgmodels.UserID, n int) float64
}

// FixedPricingStrategy is the default: a single configured price per
// evaluation regardless of user or volume (spec §4.2).
type FixedPricingStrategy struct {
	Price float64
}

func NewFixedPricingStrategy(price float64) *FixedPricingStrategy {
	return &FixedPricingStrategy{Price: price}
}

func (s *FixedPricingStrategy) UnitPrice(pkgmodels.UserID) float64 {
	return s.Price
}

func (s *FixedPricingStrategy) Total(userID pkgmodels.UserID, n int) float64 {
	return s.UnitPrice(userID) * float64(n)
}

// ExprPricingStrategy evaluates an operator-configured expr-lang expression
// to compute unit_price per user, e.g. a plan-based discount. The expression
// receives `user_id` and `base_price` and must evaluate to a float64.
type ExprPricingStrategy struct {
	program   *vm.Program
	basePrice float64
}

// NewExprPricingStrategy compiles exprSrc once at startup; a compile error
// is a configuration error, not a runtime one.
func NewExprPricingStrategy(exprSrc string, basePrice float64) (*ExprPricingStrategy, error) {
	program, err := expr.Compile(exprSrc, expr.Env(map[string]any{
		"user_id":    "",
		"base_price": 0.0,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to compile pricing expression: %w", err)
	}
	return &ExprPricingStrategy{program: program, basePrice: basePrice}, nil
}

func (s *ExprPricingStrategy) UnitPrice(userID pkgmodels.UserID) float64 {
	out, err := expr.Run(s.program, map[string]any{
		"user_id":    string(userID),
		"base_price": s.basePrice,
	})
	if err != nil {
		return s.basePrice
	}
	price, ok := toFloat(out)
	if !ok {
		return s.basePrice
	}
	return price
}

func (s *ExprPricingStrategy) Total(userID pkgmodels.UserID, n int) float64 {
	return s.UnitPrice(userID) * float64(n)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
