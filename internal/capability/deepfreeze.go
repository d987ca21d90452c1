package capability

import (
	"fmt"
	"log/slog"

	"github.com/shipmanifest/extension/pkg/core"
)

// DeepFreeze is the cryogenic storage integration. Frozen occupants count as
// crew but hold no seat.
const DeepFreeze Name = "DeepFreeze"

// DeepFreezeModule is the host module name of a freezer part.
const DeepFreezeModule = "DeepFreezer"

// DeepFreezeAdapter reads frozen-occupant counts from cryo-storage parts.
type DeepFreezeAdapter struct{}

func (DeepFreezeAdapter) Name() Name            { return DeepFreeze }
func (DeepFreezeAdapter) HostModule() string    { return DeepFreezeModule }
func (DeepFreezeAdapter) Feature() core.Feature { return core.FeatureCryoStorage }

// Extra returns the number of frozen occupants in the part.
func (DeepFreezeAdapter) Extra(part *core.Part) (int, error) {
	c := part.Features[core.FeatureCryoStorage]
	if c == nil {
		return 0, nil
	}
	n, err := c.Count()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative frozen count %d", n)
	}
	return n, nil
}

// NewDefault creates a registry with every known integration registered.
func NewDefault(detect Detector, logger *slog.Logger) *Registry {
	r := New(detect, logger)
	r.Register(DeepFreezeAdapter{})
	return r
}
