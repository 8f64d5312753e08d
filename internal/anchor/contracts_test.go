package anchor_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/anchor"
	"github.com/trustblock/trustblock-cli/internal/audit"
)

const (
	testCoreABIPathConstant       = "abi/trustblock_core.json"
	publishAuditSignatureConstant = "publishAudit(address[],string,bytes28,bytes4)"
	testPolygonContractConstant   = "0x1111111111111111111111111111111111111111"
	testEthereumContractConstant  = "0x2222222222222222222222222222222222222222"
	testReportHashConstant        = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
)

func loadCoreABI(testInstance *testing.T) abi.ABI {
	definition, readError := os.ReadFile(testCoreABIPathConstant)
	require.NoError(testInstance, readError)
	parsedABI, parseError := abi.JSON(bytes.NewReader(definition))
	require.NoError(testInstance, parseError)
	return parsedABI
}

func testPublishedAudit() audit.PublishedAudit {
	return audit.NewPublishedAudit(audit.AuditData{
		Name: "Acme Audit",
		Contracts: []audit.AuditContract{
			{Chain: audit.ChainPolygon, EVMAddress: testPolygonContractConstant},
			{Chain: audit.ChainEthereum, EVMAddress: testEthereumContractConstant},
		},
		Issues: audit.IssueCount{
			Fixed:        audit.SeverityCount{Low: 9},
			RiskAccepted: audit.SeverityCount{Low: 1, Medium: 2, High: 3, Critical: 4},
		},
		Project: audit.Project{Name: "Acme"},
	}, "p-1", testReportHashConstant, "https://example.invalid/report")
}

func TestEncodePublishAuditCallSelector(testInstance *testing.T) {
	var projectName [audit.ProjectNameByteLength]byte
	callData, encodeError := anchor.EncodePublishAuditCall(nil, testReportHashConstant, projectName, [4]byte{})
	require.NoError(testInstance, encodeError)
	require.Equal(testInstance, crypto.Keccak256([]byte(publishAuditSignatureConstant))[:4], callData[:4])
}

func TestBuildPublishAuditPayloadSelectsChainContracts(testInstance *testing.T) {
	callData, encodeError := anchor.BuildPublishAuditPayload(testPublishedAudit(), audit.ChainPolygon, "Acme", testReportHashConstant)
	require.NoError(testInstance, encodeError)

	coreABI := loadCoreABI(testInstance)
	method, methodError := coreABI.MethodById(callData[:4])
	require.NoError(testInstance, methodError)

	arguments, unpackError := method.Inputs.Unpack(callData[4:])
	require.NoError(testInstance, unpackError)
	require.Len(testInstance, arguments, 4)

	require.Equal(testInstance, []common.Address{common.HexToAddress(testPolygonContractConstant)}, arguments[0])
	require.Equal(testInstance, testReportHashConstant, arguments[1])

	expectedName := [audit.ProjectNameByteLength]byte{}
	copy(expectedName[:], "Acme")
	require.Equal(testInstance, expectedName, arguments[2])
	require.Equal(testInstance, [4]byte{4, 3, 2, 1}, arguments[3])
}

func TestBuildPublishAuditPayloadRejectsLongProjectName(testInstance *testing.T) {
	_, encodeError := anchor.BuildPublishAuditPayload(testPublishedAudit(), audit.ChainPolygon, "a project name that is far too long", testReportHashConstant)
	require.Error(testInstance, encodeError)
}
