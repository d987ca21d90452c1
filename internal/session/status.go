package session

import (
	"github.com/shipmanifest/extension/internal/capability"
	"github.com/shipmanifest/extension/internal/hatch"
)

// Status is a point-in-time summary of the session.
type Status struct {
	Vessel       string                   `json:"vessel,omitempty"`
	Parts        int                      `json:"parts"`
	Hatches      int                      `json:"hatches"`
	OpenHatches  int                      `json:"openHatches"`
	Prelaunch    bool                     `json:"prelaunch"`
	Crew         int                      `json:"crew"`
	Editing      bool                     `json:"editing"`
	Capabilities map[capability.Name]bool `json:"capabilities"`
	ReachEntries int                      `json:"reachEntries"`
	ReachHits    int                      `json:"reachHits"`
	ReachMisses  int                      `json:"reachMisses"`
	LogEntries   int                      `json:"logEntries"`
}

// Status returns the current summary.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Crew:         s.roster.Len(),
		Editing:      s.edit != nil,
		Capabilities: s.registry.Status(),
		LogEntries:   s.diagnostics.Len(),
	}
	st.ReachEntries, st.ReachHits, st.ReachMisses = s.ReachStats()
	if s.vessel != nil {
		st.Vessel = s.vessel.Name
		st.Parts = s.vessel.Len()
		st.Prelaunch = s.prelaunch
		for _, h := range s.hatches.List() {
			st.Hatches++
			if h.State == hatch.Open {
				st.OpenHatches++
			}
		}
	}
	return st
}
