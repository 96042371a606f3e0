package tiling

import (
	"fmt"
	"strings"
)

// Kind selects a tiling strategy
type Kind int

const (
	EqualSize   Kind = iota // Fixed grid of equal rectangles
	EqualEnergy             // Bisection at the energy median
	Adaptive                // Bisection at the midpoint
)

var kindNames = map[Kind]string{
	EqualSize:   "equal-size",
	EqualEnergy: "equal-energy",
	Adaptive:    "adaptive",
}

// Short names match the method suffixes used in experiment output
var kindAliases = map[string]Kind{
	"es": EqualSize,
	"ee": EqualEnergy,
	"ad": Adaptive,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the long names ("equal-size") and short aliases ("ES")
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	if kind, ok := kindAliases[s]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("unknown tiler kind %q", s)
}

// New builds a tiler of the given kind with a gx × gy target grid
func New(kind Kind, src LuminanceSource, gx, gy int) (Tiler, error) {
	var (
		tiler Tiler
		err   error
	)
	switch kind {
	case EqualSize:
		tiler, err = NewEqualSizeTiler(src, gx, gy)
	case EqualEnergy:
		tiler, err = NewEqualEnergyTiler(src, gx, gy)
	case Adaptive:
		tiler, err = NewAdaptiveTiler(src, gx, gy)
	default:
		return nil, fmt.Errorf("unknown tiler kind %v", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("building %s tiler: %w", kind, err)
	}
	return tiler, nil
}
