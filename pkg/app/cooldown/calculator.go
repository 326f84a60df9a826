package cooldown

import (
	"math"

	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
)

const MinMinutes = 5

// Input is everything the cooldown model looks at for one actor.
type Input struct {
	Whitelisted    bool
	Blacklisted    bool
	TrustScore     int
	RiskLevel      fingerprint.RiskLevel
	FailedAttempts int
	// RecentActivities is the number of suspicious activities in the last hour.
	RecentActivities int
}

//go:generate mockery --name=Calculator --dir=. --output=./mocks --filename=calculator_mock.go --case=underscore --with-expecter
type Calculator interface {
	Minutes(in Input) int
	MaxMinutes() int
}

type calculator struct {
	baseMinutes int
	maxMinutes  int
}

func NewCalculator(baseMinutes, maxCooldownHours int) Calculator {
	return &calculator{
		baseMinutes: baseMinutes,
		maxMinutes:  maxCooldownHours * 60,
	}
}

func (c *calculator) MaxMinutes() int {
	return c.maxMinutes
}

func (c *calculator) Minutes(in Input) int {
	if in.Whitelisted {
		return max(MinMinutes, c.baseMinutes/2)
	}
	if in.Blacklisted {
		return c.maxMinutes
	}

	minutes := float64(c.baseMinutes) *
		TrustMultiplier(in.TrustScore) *
		RiskMultiplier(in.RiskLevel) *
		FailureMultiplier(in.FailedAttempts) *
		SuspicionMultiplier(in.RecentActivities)

	minutes = math.Max(MinMinutes, math.Min(minutes, float64(c.maxMinutes)))
	return int(minutes)
}

func TrustMultiplier(trust int) float64 {
	switch {
	case trust >= 80:
		return 0.8
	case trust >= 60:
		return 1.0
	case trust >= 40:
		return 1.5
	default:
		return 2.0
	}
}

func RiskMultiplier(level fingerprint.RiskLevel) float64 {
	switch level {
	case fingerprint.RiskMedium:
		return 1.5
	case fingerprint.RiskHigh:
		return 2.5
	case fingerprint.RiskBanned:
		return 10.0
	default:
		return 1.0
	}
}

func FailureMultiplier(failed int) float64 {
	return 1.0 + 0.2*float64(failed)
}

func SuspicionMultiplier(recent int) float64 {
	return 1.0 + 0.3*float64(recent)
}
