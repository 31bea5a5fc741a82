package finance

import (
	"github.com/erp/billing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Dunning stages. Stages above CollectionWarning only come from manual escalation.
const (
	StageReminder          = 0
	StageFirstNotice       = 1
	StageFinalNotice       = 2
	StageCollectionWarning = 3

	// MaxAutomaticStage is the highest stage the sweep creates
	MaxAutomaticStage = StageCollectionWarning
)

// StageName returns a human-readable label for a stage
func StageName(stage int) string {
	switch stage {
	case StageReminder:
		return "Zahlungserinnerung"
	case StageFirstNotice:
		return "1. Mahnung"
	case StageFinalNotice:
		return "Letzte Mahnung"
	}
	return "Inkassowarnung"
}

// DunningPolicy holds the day thresholds for each stage and the fee options.
// Fees and interest are recognised but not applied: records always carry zero.
type DunningPolicy struct {
	ReminderDays          int
	FirstNoticeDays       int
	FinalNoticeDays       int
	CollectionWarningDays int
	FeeFirst              decimal.Decimal
	FeeFinal              decimal.Decimal
	InterestEnabled       bool
}

// DefaultDunningPolicy returns 5/14/30/45 days without fees
func DefaultDunningPolicy() DunningPolicy {
	return DunningPolicy{
		ReminderDays:          5,
		FirstNoticeDays:       14,
		FinalNoticeDays:       30,
		CollectionWarningDays: 45,
		FeeFirst:              decimal.Zero,
		FeeFinal:              decimal.Zero,
	}
}

// Validate checks thresholds are non-negative and strictly increasing
func (p DunningPolicy) Validate() error {
	if p.ReminderDays < 0 {
		return shared.NewValidationError("reminder days cannot be negative")
	}
	if p.FirstNoticeDays <= p.ReminderDays || p.FinalNoticeDays <= p.FirstNoticeDays ||
		p.CollectionWarningDays <= p.FinalNoticeDays {
		return shared.NewValidationError("dunning thresholds must increase: %d/%d/%d/%d",
			p.ReminderDays, p.FirstNoticeDays, p.FinalNoticeDays, p.CollectionWarningDays)
	}
	if p.FeeFirst.IsNegative() || p.FeeFinal.IsNegative() {
		return shared.NewValidationError("dunning fees cannot be negative")
	}
	return nil
}

// ChargesConfigured reports whether fees or interest are set even though they are not applied
func (p DunningPolicy) ChargesConfigured() bool {
	return !p.FeeFirst.IsZero() || !p.FeeFinal.IsZero() || p.InterestEnabled
}

// EligibleStage returns the highest stage daysOverdue qualifies for, or -1 for none
func (p DunningPolicy) EligibleStage(daysOverdue int) int {
	switch {
	case daysOverdue >= p.CollectionWarningDays:
		return StageCollectionWarning
	case daysOverdue >= p.FinalNoticeDays:
		return StageFinalNotice
	case daysOverdue >= p.FirstNoticeDays:
		return StageFirstNotice
	case daysOverdue >= p.ReminderDays:
		return StageReminder
	}
	return -1
}

// NextStage decides the single stage to create given the current highest stage.
// The sweep advances one stage per run, so an invoice that skipped runs still walks
// through every stage. ok is false when nothing is due.
func (p DunningPolicy) NextStage(current, daysOverdue int) (stage int, ok bool) {
	eligible := p.EligibleStage(daysOverdue)
	if eligible <= current {
		return 0, false
	}
	next := current + 1
	if next > MaxAutomaticStage {
		return 0, false
	}
	return next, true
}
