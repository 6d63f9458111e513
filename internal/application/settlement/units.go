package settlement

import (
	"math/big"
	"strings"

	"ideanest-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Decimals is the precision of the native currency (EDU).
const Decimals = 18

// ToBaseUnits converts a display amount to wei, rounding to the nearest base unit.
func ToBaseUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(Decimals).Round(0).BigInt()
}

// FromBaseUnits converts wei to a display amount. The conversion is exact.
func FromBaseUnits(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -Decimals)
}

// ParseInvestmentID parses a contract investment id as stored on a record.
func ParseInvestmentID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || id.Sign() < 0 {
		return nil, domain.Validationf("Invalid contract investment id %q", s)
	}
	return id, nil
}
