package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// Severity indicates whether a validation finding is a broken invariant or
// merely advisory.
type Severity int

const (
	SeverityError   Severity = iota // broken tree invariant
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   uuid.UUID
	Name     string
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.NodeID == uuid.Nil {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %q (%s): %s", e.Severity, e.Name, e.NodeID.String()[:8], e.Message)
}

// Validate checks root's subtree and returns every finding. The tree is
// never mutated. Parent links that disagree with the children relation
// and nodes reachable twice are errors; duplicate identities and
// geometry-less leaves are warnings.
func Validate(root *Node) []ValidationError {
	if root == nil {
		return nil
	}
	var out []ValidationError
	seen := make(map[*Node]bool)
	ids := make(map[uuid.UUID]*Node)

	var visit func(n *Node)
	visit = func(n *Node) {
		if seen[n] {
			out = append(out, ValidationError{
				NodeID: n.id, Name: n.name, Severity: SeverityError,
				Message: "node is reachable more than once",
			})
			return
		}
		seen[n] = true

		if other, ok := ids[n.id]; ok && other != n {
			out = append(out, ValidationError{
				NodeID: n.id, Name: n.name, Severity: SeverityWarning,
				Message: fmt.Sprintf("identity shared with node %q", other.name),
			})
		} else {
			ids[n.id] = n
		}

		if len(n.children) == 0 && !n.HasMesh() && n != root {
			out = append(out, ValidationError{
				NodeID: n.id, Name: n.name, Severity: SeverityWarning,
				Message: "leaf has no geometry",
			})
		}

		for _, c := range n.children {
			if c.parent != n {
				out = append(out, ValidationError{
					NodeID: c.id, Name: c.name, Severity: SeverityError,
					Message: fmt.Sprintf("parent link does not point at %q", n.name),
				})
			}
			visit(c)
		}
	}
	visit(root)
	return out
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}
