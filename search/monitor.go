package search

import (
	"github.com/poiesic/docsift/core"
)

// QueryMonitor provides hooks to observe the query process.
// Implement this interface to track intermediate steps and results.
type QueryMonitor interface {
	Start(query core.Query)
	AfterRoleResolution(roles []string)
	AfterKeywordExtraction(keywords []string, err error)
	AfterRetrieval(segments []*core.Segment)
	AfterContextBuild(used int, context string)
	Finish(answer *core.Answer, err error)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query)                         {}
func (n *noopMonitor) AfterRoleResolution(_ []string)             {}
func (n *noopMonitor) AfterKeywordExtraction(_ []string, _ error) {}
func (n *noopMonitor) AfterRetrieval(_ []*core.Segment)           {}
func (n *noopMonitor) AfterContextBuild(_ int, _ string)          {}
func (n *noopMonitor) Finish(_ *core.Answer, _ error)             {}
