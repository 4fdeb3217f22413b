// Package policy implements the orchestrator's per-agent tool-family
// entitlements and the file-tool path-containment guard.
package policy

import (
	"path/filepath"
	"strings"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// Tool families. A tool's Family field must be one of these.
const (
	FamilyCode   = "code"
	FamilyFile   = "file"
	FamilySystem = "system"
	FamilyWeb    = "web"
	FamilyOSINT  = "osint"
	FamilyMemory = "memory"
)

// AgentFamilies maps each agent to the set of tool families it may invoke.
// Built once at init and never mutated, per the immutable-after-startup
// design note.
var AgentFamilies = map[models.AgentID][]string{
	models.AgentCoder:       {FamilyCode, FamilyFile, FamilyMemory},
	models.AgentResearcher:  {FamilyWeb, FamilyOSINT, FamilyFile, FamilyMemory},
	models.AgentExecutor:    {FamilySystem, FamilyFile, FamilyMemory},
	models.AgentReasoner:    {FamilyMemory},
	models.AgentSecurity:    {FamilyOSINT, FamilyWeb, FamilySystem, FamilyFile, FamilyCode, FamilyMemory},
	models.AgentConsultant:  {FamilyCode, FamilyFile, FamilySystem, FamilyWeb, FamilyOSINT, FamilyMemory},
	models.AgentVisionLocal: {FamilyFile, FamilyWeb, FamilyMemory},
	models.AgentVisionCloud: {},
	models.AgentGeneral:     {FamilyFile, FamilyWeb, FamilyMemory},
}

// FamiliesFor returns the tool families an agent may use.
func FamiliesFor(agent models.AgentID) []string {
	return AgentFamilies[agent]
}

// Allowed reports whether agent may invoke a tool from family.
func Allowed(agent models.AgentID, family string) bool {
	for _, f := range AgentFamilies[agent] {
		if f == family {
			return true
		}
	}
	return false
}

// ContainPath resolves candidate (which may contain symlinks) to its real
// path and verifies it falls inside root's real path, returning the
// canonical absolute path on success. This rejects symlink-escape attempts
// that a simple string-prefix check would miss.
func ContainPath(root, candidate string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "resolve root", err)
	}
	absCandidate := candidate
	if !filepath.IsAbs(absCandidate) {
		absCandidate = filepath.Join(absRoot, candidate)
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		realRoot = absRoot
	}

	dir := filepath.Dir(absCandidate)
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		realDir = dir
	}
	realCandidate := filepath.Join(realDir, filepath.Base(absCandidate))

	rel, err := filepath.Rel(realRoot, realCandidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperr.New(apperr.KindRefused, "path escapes allowed root")
	}
	return realCandidate, nil
}
