package audit_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/audit"
)

func TestPackSeverityBytesLayout(testInstance *testing.T) {
	testCases := []struct {
		name          string
		count         audit.SeverityCount
		expectedBytes [4]byte
	}{
		{name: "zero", count: audit.SeverityCount{}, expectedBytes: [4]byte{0, 0, 0, 0}},
		{name: "low_only", count: audit.SeverityCount{Low: 7}, expectedBytes: [4]byte{0, 0, 0, 7}},
		{name: "critical_most_significant", count: audit.SeverityCount{Critical: 1}, expectedBytes: [4]byte{1, 0, 0, 0}},
		{name: "all_buckets", count: audit.SeverityCount{Low: 4, Medium: 3, High: 2, Critical: 1}, expectedBytes: [4]byte{1, 2, 3, 4}},
		{name: "maximum", count: audit.SeverityCount{Low: 50, Medium: 50, High: 50, Critical: 50}, expectedBytes: [4]byte{50, 50, 50, 50}},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedBytes, audit.PackSeverityBytes(testCase.count))
		})
	}
}

func TestPackSeverityBytesRoundTripsValidRange(testInstance *testing.T) {
	for low := uint8(0); low <= audit.MaximumSeverityCount; low += 5 {
		for medium := uint8(0); medium <= audit.MaximumSeverityCount; medium += 7 {
			for high := uint8(0); high <= audit.MaximumSeverityCount; high += 10 {
				for critical := uint8(0); critical <= audit.MaximumSeverityCount; critical++ {
					count := audit.SeverityCount{Low: low, Medium: medium, High: high, Critical: critical}
					require.Equal(testInstance, count, audit.UnpackSeverityBytes(audit.PackSeverityBytes(count)))
				}
			}
		}
	}
}

func TestExpandIssues(testInstance *testing.T) {
	testCases := []struct {
		name           string
		issues         audit.IssueCount
		expectedCounts map[audit.Issue]int
		expectedTotal  int
	}{
		{
			name:           "no_issues",
			issues:         audit.IssueCount{},
			expectedCounts: map[audit.Issue]int{},
			expectedTotal:  0,
		},
		{
			name: "mixed_buckets",
			issues: audit.IssueCount{
				Fixed:        audit.SeverityCount{Low: 2, Critical: 1},
				RiskAccepted: audit.SeverityCount{Medium: 3, High: 1},
			},
			expectedCounts: map[audit.Issue]int{
				{Status: audit.StatusFixed, Severity: audit.SeverityLow}:           2,
				{Status: audit.StatusFixed, Severity: audit.SeverityCritical}:      1,
				{Status: audit.StatusRiskAccepted, Severity: audit.SeverityMedium}: 3,
				{Status: audit.StatusRiskAccepted, Severity: audit.SeverityHigh}:   1,
			},
			expectedTotal: 7,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			expandedIssues := audit.ExpandIssues(testCase.issues)
			require.NotNil(testInstance, expandedIssues)
			require.Len(testInstance, expandedIssues, testCase.expectedTotal)

			observedCounts := map[audit.Issue]int{}
			for _, issue := range expandedIssues {
				observedCounts[issue]++
			}
			require.Equal(testInstance, testCase.expectedCounts, observedCounts)
		})
	}
}

func TestProjectNameBytes(testInstance *testing.T) {
	testCases := []struct {
		name        string
		projectName string
		expectError bool
	}{
		{name: "short_name_is_zero_padded", projectName: "Acme"},
		{name: "exact_width", projectName: "abcdefghijklmnopqrstuvwxyz01"},
		{name: "empty_rejected", projectName: "", expectError: true},
		{name: "too_long_rejected", projectName: "abcdefghijklmnopqrstuvwxyz012", expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			encoded, encodeError := audit.ProjectNameBytes(testCase.projectName)
			if testCase.expectError {
				require.Error(testInstance, encodeError)
				return
			}
			require.NoError(testInstance, encodeError)
			require.Equal(testInstance, testCase.projectName, string(encoded[:len(testCase.projectName)]))
			for _, paddingByte := range encoded[len(testCase.projectName):] {
				require.Zero(testInstance, paddingByte)
			}
		})
	}
}
