package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an executable vidforge shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional binaries only widen what assembly can do; their absence
	// never blocks a run.
	Optional bool
}

// Status is a Requirement resolved against PATH.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Check resolves a single requirement.
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Available = true
	status.Path = resolved
	return status
}

// CheckBinaries resolves requirements in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}
