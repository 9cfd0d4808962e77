/*
Package investconst contains constants and pure arithmetic of the investment
contract shared between the contract itself and off-chain tooling.

All amounts are in the smallest GAS units (10^-8 GAS), all times are in
milliseconds as returned by runtime.GetTime.
*/
package investconst

const (
	// GAS is the number of the smallest units in one GAS.
	GAS = 1_0000_0000

	// DividendsTime is the length of a single dividends period.
	DividendsTime = 24 * 60 * 60 * 1000

	// MinInvestment is the minimal deposit accepted by the contract.
	MinInvestment = GAS / 100

	// PercentBase is the denominator of all percent values: 325 means 3.25%.
	PercentBase = 10_000

	// MarketingFee is the share of every deposit sent to each of two marketing
	// accounts.
	MarketingFee = 500

	// Levels is the number of TVL levels.
	Levels = 6
)

// Panic messages of the contract.
const (
	ErrNotStarted        = "contract is not started, please wait"
	ErrNotOwner          = "only owner can start the contract"
	ErrInvalidDeposit    = "deposit must be >= minimal investment"
	ErrDepositNotFound   = "deposit not found"
	ErrTooEarly          = "too early to claim dividends"
	ErrGASOnly           = "contract accepts GAS only"
	ErrInvalidInvestor   = "invalid investor address"
	ErrDividendsTransfer = "can't transfer dividends"
	ErrMarketingTransfer = "can't transfer marketing fee"
)

var (
	// thresholds are minimal TVL values of levels 1..Levels.
	thresholds = []int{
		0,
		20 * GAS,
		40 * GAS,
		60 * GAS,
		80 * GAS,
		100 * GAS,
	}

	// percents are dividend rates of levels 1..Levels per DividendsTime.
	percents = []int{325, 350, 375, 400, 425, 450}
)

// Level returns the highest level which threshold doesn't exceed tvl.
func Level(tvl int) int {
	for i := Levels - 1; i > 0; i-- {
		if tvl >= thresholds[i] {
			return i + 1
		}
	}
	return 1
}

// Threshold returns minimal TVL of the level or 0 for an unknown level.
func Threshold(level int) int {
	if level < 1 || level > Levels {
		return 0
	}
	return thresholds[level-1]
}

// Percent returns dividend rate of the level or 0 for an unknown level.
func Percent(level int) int {
	if level < 1 || level > Levels {
		return 0
	}
	return percents[level-1]
}

// ElapsedPeriods returns the number of whole dividend periods between from
// and now.
func ElapsedPeriods(from, now int) int {
	if now <= from {
		return 0
	}
	return (now - from) / DividendsTime
}

// Dividends returns amount owed for balance kept during the given number of
// periods at the given percent. Percent applies to every period, sub-unit
// remainder of a single period is dropped.
func Dividends(balance, percent, periods int) int {
	return balance * percent / PercentBase * periods
}

// MarketingShare returns fee sent to each marketing account from the deposit.
func MarketingShare(amount int) int {
	return amount * MarketingFee / PercentBase
}
