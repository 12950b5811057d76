package safety

import (
	"fmt"
	"math"
	"strings"
)

// ValidationResult represents the result of a validation check
type ValidationResult struct {
	Valid   bool
	Message string
	Code    string
}

// Validator provides defensive validation for inputs reaching the decision core
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAsset validates an asset identifier
func (v *Validator) ValidateAsset(asset string) ValidationResult {
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return ValidationResult{
			Valid:   false,
			Message: "asset identifier cannot be empty",
			Code:    "ASSET_EMPTY",
		}
	}

	if len(asset) < 2 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("asset '%s' too short: minimum 2 characters required", asset),
			Code:    "ASSET_TOO_SHORT",
		}
	}

	if len(asset) > 20 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("asset '%s' too long: maximum 20 characters allowed", asset),
			Code:    "ASSET_TOO_LONG",
		}
	}

	for _, char := range asset {
		if !((char >= 'A' && char <= 'Z') || (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("asset '%s' contains invalid characters: only alphanumeric allowed", asset),
				Code:    "ASSET_INVALID_CHARS",
			}
		}
	}

	return ValidationResult{Valid: true}
}

// ValidateAmount validates a trade amount
func (v *Validator) ValidateAmount(amount float64, context string) ValidationResult {
	if math.IsNaN(amount) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid %s amount: amount is NaN", context),
			Code:    "AMOUNT_NAN",
		}
	}

	if math.IsInf(amount, 0) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid %s amount: amount is infinite", context),
			Code:    "AMOUNT_INF",
		}
	}

	if amount <= 0 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid %s amount %.8f: amount must be positive", context, amount),
			Code:    "AMOUNT_NOT_POSITIVE",
		}
	}

	if amount > 1e12 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("suspicious %s amount %.2f: exceeds reasonable bounds", context, amount),
			Code:    "AMOUNT_OUT_OF_BOUNDS",
		}
	}

	return ValidationResult{Valid: true}
}

// ValidatePrice validates a price value
func (v *Validator) ValidatePrice(price float64, asset string) ValidationResult {
	if math.IsNaN(price) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid price for %s: price is NaN", asset),
			Code:    "PRICE_NAN",
		}
	}

	if math.IsInf(price, 0) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid price for %s: price is infinite", asset),
			Code:    "PRICE_INF",
		}
	}

	if price <= 0 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid price %.8f for %s: price must be positive", price, asset),
			Code:    "PRICE_NOT_POSITIVE",
		}
	}

	if price > 1e10 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("suspicious price %.8f for %s: exceeds reasonable bounds", price, asset),
			Code:    "PRICE_OUT_OF_BOUNDS",
		}
	}

	if price < 1e-12 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("suspicious price %.12f for %s: below reasonable bounds", price, asset),
			Code:    "PRICE_TOO_SMALL",
		}
	}

	return ValidationResult{Valid: true}
}

// ValidateSlippage validates a slippage tolerance percentage
func (v *Validator) ValidateSlippage(slippage float64) ValidationResult {
	if math.IsNaN(slippage) {
		return ValidationResult{
			Valid:   false,
			Message: "slippage tolerance is NaN",
			Code:    "SLIPPAGE_NAN",
		}
	}

	if slippage < 0 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("slippage tolerance %.4f cannot be negative", slippage),
			Code:    "SLIPPAGE_NEGATIVE",
		}
	}

	if slippage > 50 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("slippage tolerance %.2f%% exceeds 50%% - this seems excessive", slippage),
			Code:    "SLIPPAGE_TOO_HIGH",
		}
	}

	return ValidationResult{Valid: true}
}

// ValidateAccountID validates an account identifier
func (v *Validator) ValidateAccountID(accountID string) ValidationResult {
	if strings.TrimSpace(accountID) == "" {
		return ValidationResult{
			Valid:   false,
			Message: "account id cannot be empty",
			Code:    "ACCOUNT_ID_EMPTY",
		}
	}

	return ValidationResult{Valid: true}
}

// SafeDivision performs division with zero-check
func (v *Validator) SafeDivision(dividend, divisor float64) (float64, error) {
	if divisor == 0 {
		return 0, fmt.Errorf("division by zero: %.8f / %.8f", dividend, divisor)
	}

	if math.IsNaN(dividend) || math.IsNaN(divisor) {
		return 0, fmt.Errorf("division with NaN: %.8f / %.8f", dividend, divisor)
	}

	if math.IsInf(dividend, 0) || math.IsInf(divisor, 0) {
		return 0, fmt.Errorf("division with infinity: %.8f / %.8f", dividend, divisor)
	}

	result := dividend / divisor

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("division resulted in invalid value: %.8f / %.8f = %.8f",
			dividend, divisor, result)
	}

	return result, nil
}
