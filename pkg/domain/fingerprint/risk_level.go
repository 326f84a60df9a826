package fingerprint

import "fmt"

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
	RiskBanned RiskLevel = "banned"
)

// RiskLevels lists every level in ascending order of severity.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskBanned}

func ParseRiskLevel(value string) (RiskLevel, error) {
	switch RiskLevel(value) {
	case RiskLow, RiskMedium, RiskHigh, RiskBanned:
		return RiskLevel(value), nil
	default:
		return "", fmt.Errorf("invalid risk level %q", value)
	}
}

// Rank orders levels so that a higher rank is riskier.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskBanned:
		return 3
	default:
		return -1
	}
}

// RiskLevelFor derives the risk bucket from the scoring inputs. It has no
// other inputs, so calling it twice without a mutation in between always
// yields the same level.
func RiskLevelFor(trustScore, failedAttempts int, flags Flags) RiskLevel {
	switch {
	case trustScore <= 20 || flags.Has(FlagBlacklisted):
		return RiskBanned
	case trustScore <= 40 || failedAttempts >= 5:
		return RiskHigh
	case trustScore <= 70 || failedAttempts >= 2:
		return RiskMedium
	default:
		return RiskLow
	}
}
