package audit

import (
	"encoding/binary"
)

// Status describes how a finding was resolved.
type Status string

// Issue statuses.
const (
	StatusFixed        Status = "FIXED"
	StatusRiskAccepted Status = "RISK_ACCEPTED"
)

// Severity ranks a finding.
type Severity string

// Issue severities.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// MaximumSeverityCount bounds every severity bucket.
const MaximumSeverityCount = 50

// SeverityCount counts findings per severity.
type SeverityCount struct {
	Low      uint8 `json:"LOW" yaml:"LOW"`
	Medium   uint8 `json:"MEDIUM" yaml:"MEDIUM"`
	High     uint8 `json:"HIGH" yaml:"HIGH"`
	Critical uint8 `json:"CRITICAL" yaml:"CRITICAL"`
}

func (count SeverityCount) bySeverity() []severityTally {
	return []severityTally{
		{severity: SeverityLow, count: count.Low},
		{severity: SeverityMedium, count: count.Medium},
		{severity: SeverityHigh, count: count.High},
		{severity: SeverityCritical, count: count.Critical},
	}
}

type severityTally struct {
	severity Severity
	count    uint8
}

// IssueCount buckets findings into fixed and risk-accepted counts.
type IssueCount struct {
	Fixed        SeverityCount `json:"FIXED" yaml:"FIXED"`
	RiskAccepted SeverityCount `json:"RISK_ACCEPTED" yaml:"RISK_ACCEPTED"`
}

// Issue is one finding in the flat registry representation.
type Issue struct {
	Status   Status   `json:"status"`
	Severity Severity `json:"severity"`
}

// ExpandIssues flattens the bucketed counts into one Issue per finding.
func ExpandIssues(issues IssueCount) []Issue {
	expandedIssues := make([]Issue, 0)
	for _, bucket := range []struct {
		status Status
		counts SeverityCount
	}{
		{status: StatusFixed, counts: issues.Fixed},
		{status: StatusRiskAccepted, counts: issues.RiskAccepted},
	} {
		for _, tally := range bucket.counts.bySeverity() {
			for index := uint8(0); index < tally.count; index++ {
				expandedIssues = append(expandedIssues, Issue{Status: bucket.status, Severity: tally.severity})
			}
		}
	}
	return expandedIssues
}

// PackSeverityBytes packs the counts into a big-endian word: critical in bits 24-31,
// high in 16-23, medium in 8-15 and low in 0-7.
func PackSeverityBytes(count SeverityCount) [4]byte {
	packedWord := uint32(count.Critical)<<24 | uint32(count.High)<<16 | uint32(count.Medium)<<8 | uint32(count.Low)
	var packed [4]byte
	binary.BigEndian.PutUint32(packed[:], packedWord)
	return packed
}

// UnpackSeverityBytes reverses PackSeverityBytes.
func UnpackSeverityBytes(packed [4]byte) SeverityCount {
	packedWord := binary.BigEndian.Uint32(packed[:])
	return SeverityCount{
		Critical: uint8(packedWord >> 24),
		High:     uint8(packedWord >> 16),
		Medium:   uint8(packedWord >> 8),
		Low:      uint8(packedWord),
	}
}
