package audit

import (
	"github.com/ethereum/go-ethereum/common"
)

// Tag classifies the audited project.
type Tag string

// Supported tags.
const (
	TagToken        Tag = "TOKEN"
	TagFinance      Tag = "FINANCE"
	TagCollectibles Tag = "COLLECTIBLES"
	TagGaming       Tag = "GAMING"
	TagGovernance   Tag = "GOVERNANCE"
	TagSocial       Tag = "SOCIAL"
	TagOther        Tag = "OTHER"
)

var supportedTags = map[Tag]struct{}{
	TagToken:        {},
	TagFinance:      {},
	TagCollectibles: {},
	TagGaming:       {},
	TagGovernance:   {},
	TagSocial:       {},
	TagOther:        {},
}

// Supported reports whether the tag is recognised by the registry.
func (tag Tag) Supported() bool {
	_, known := supportedTags[tag]
	return known
}

// AuditContract pairs an audited contract address with its chain.
type AuditContract struct {
	Chain      Chain  `json:"chain" yaml:"chain"`
	EVMAddress string `json:"evmAddress" yaml:"evmAddress"`
}

// Address returns the parsed contract address.
func (contract AuditContract) Address() common.Address {
	return common.HexToAddress(contract.EVMAddress)
}

// Description holds the free-form audit summary.
type Description struct {
	Summary string `json:"summary" yaml:"summary"`
}

// Links lists the public project links. Empty values are omitted on the wire.
type Links struct {
	Twitter  string `json:"twitter,omitempty" yaml:"twitter"`
	Telegram string `json:"telegram,omitempty" yaml:"telegram"`
	GitHub   string `json:"github,omitempty" yaml:"github"`
	Website  string `json:"website,omitempty" yaml:"website"`
}

// Contact holds the project contact details.
type Contact struct {
	Email string `json:"email,omitempty" yaml:"email"`
}

// Project describes the audited project. ID is assigned by the registry and never read from input.
type Project struct {
	ID      string  `json:"id,omitempty" yaml:"-"`
	Name    string  `json:"name" yaml:"name"`
	Links   Links   `json:"links" yaml:"links"`
	Contact Contact `json:"contact" yaml:"contact"`
}

// AuditData is the audit description supplied by the user.
type AuditData struct {
	Name        string          `json:"name" yaml:"name"`
	Description Description     `json:"description" yaml:"description"`
	Tags        []Tag           `json:"tags" yaml:"tags"`
	Contracts   []AuditContract `json:"contracts" yaml:"contracts"`
	Issues      IssueCount      `json:"issues" yaml:"issues"`
	Project     Project         `json:"project" yaml:"project"`
}

// PublishedAudit is the frozen record submitted to the registry.
type PublishedAudit struct {
	Name          string          `json:"name"`
	Description   Description     `json:"description"`
	Tags          []Tag           `json:"tags"`
	Contracts     []AuditContract `json:"contracts"`
	Issues        []Issue         `json:"issues"`
	Chains        []Chain         `json:"chains"`
	ReportHash    string          `json:"reportHash"`
	ReportFileURL string          `json:"reportFileUrl"`
	ProjectID     string          `json:"projectId"`
	Project       Project         `json:"project"`

	// IssueCount keeps the bucketed counts used by the on-chain payload.
	IssueCount IssueCount `json:"-"`
}

// NewPublishedAudit overlays the pipeline-owned fields onto the input audit.
// Chains are always recomputed from the contracts.
func NewPublishedAudit(data AuditData, projectID string, reportHash string, reportFileURL string) PublishedAudit {
	project := data.Project
	project.ID = projectID

	return PublishedAudit{
		Name:          data.Name,
		Description:   data.Description,
		Tags:          append([]Tag(nil), data.Tags...),
		Contracts:     append([]AuditContract(nil), data.Contracts...),
		Issues:        ExpandIssues(data.Issues),
		Chains:        ResolveChains(data.Contracts),
		ReportHash:    reportHash,
		ReportFileURL: reportFileURL,
		ProjectID:     projectID,
		Project:       project,
		IssueCount:    data.Issues,
	}
}
