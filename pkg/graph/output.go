package graph

import "fmt"

// OutputClass is the printable role of a node.
type OutputClass int

const (
	OutputUnset OutputClass = iota // no explicit role
	OutputSolid
	OutputSupport
	OutputWipeTower
	OutputHole
)

// OutputClasses lists the explicit classes in declaration order.
var OutputClasses = []OutputClass{OutputSolid, OutputSupport, OutputWipeTower, OutputHole}

func (o OutputClass) String() string {
	switch o {
	case OutputUnset:
		return "unset"
	case OutputSolid:
		return "solid"
	case OutputSupport:
		return "support"
	case OutputWipeTower:
		return "wipeTower"
	case OutputHole:
		return "hole"
	default:
		return fmt.Sprintf("OutputClass(%d)", int(o))
	}
}

// IsSet reports whether o is an explicit class.
func (o OutputClass) IsSet() bool { return o != OutputUnset }

// ParseOutputClass is the inverse of String.
func ParseOutputClass(s string) (OutputClass, error) {
	switch s {
	case "unset":
		return OutputUnset, nil
	case "solid":
		return OutputSolid, nil
	case "support":
		return OutputSupport, nil
	case "wipeTower", "wipe-tower", "wipe_tower":
		return OutputWipeTower, nil
	case "hole":
		return OutputHole, nil
	}
	return OutputUnset, fmt.Errorf("graph: unknown output class %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o OutputClass) MarshalText() ([]byte, error) {
	if o < OutputUnset || o > OutputHole {
		return nil, fmt.Errorf("graph: invalid output class %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OutputClass) UnmarshalText(text []byte) error {
	v, err := ParseOutputClass(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
