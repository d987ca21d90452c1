// pkg/core/resource.go
package core

// ResourceClass selects the aggregation rule applied to a ResourceType.
type ResourceClass int

const (
	// ClassGeneric resources are amount/capacity pairs summed directly.
	ClassGeneric ResourceClass = iota
	// ClassCrew is derived from seat occupancy, not container amounts.
	ClassCrew
	// ClassScience is count-only and has no capacity.
	ClassScience
)

func (c ResourceClass) String() string {
	switch c {
	case ClassCrew:
		return "Crew"
	case ClassScience:
		return "Science"
	default:
		return "Generic"
	}
}

// ResourceType tags a substance or abstract quantity carried by parts.
type ResourceType string

// Reserved resource types with non-generic semantics.
const (
	ResourceCrew    ResourceType = "Crew"
	ResourceScience ResourceType = "Science"
)

// Class returns the aggregation class for the resource type.
func (r ResourceType) Class() ResourceClass {
	switch r {
	case ResourceCrew:
		return ClassCrew
	case ResourceScience:
		return ClassScience
	default:
		return ClassGeneric
	}
}

// Container is a single resource store on a part.
type Container struct {
	Amount   float64 `json:"amount" yaml:"amount"`
	Capacity float64 `json:"capacity" yaml:"capacity"`
}

// Valid reports whether the container respects 0 <= amount <= capacity.
func (c Container) Valid() bool {
	return c.Amount >= 0 && c.Capacity >= 0 && c.Amount <= c.Capacity
}

// Counter reports a count that is read from the host at query time.
// Host-backed implementations may fail; callers must treat an error as
// "this contributor is unavailable".
type Counter interface {
	Count() (int, error)
}

// Count is a Counter with a fixed value, used for decoded snapshots.
type Count int

func (c Count) Count() (int, error) {
	return int(c), nil
}

// CounterFunc adapts a function to the Counter interface.
type CounterFunc func() (int, error)

func (f CounterFunc) Count() (int, error) {
	return f()
}
