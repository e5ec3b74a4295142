package config

import (
	"fmt"

	"github.com/marmos91/dittoh5/pkg/plist"
)

// LinkCreate returns a link creation list carrying the configured defaults.
func (g GroupsConfig) LinkCreate() (*plist.List, error) {
	lcpl := plist.New(plist.ClassLinkCreate)
	if err := plist.SetCreateIntermediateGroup(lcpl, g.CreateIntermediate); err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}
	return lcpl, nil
}

// GroupCreate returns a group creation list carrying the configured
// defaults.
func (g GroupsConfig) GroupCreate() (*plist.List, error) {
	gcpl := plist.New(plist.ClassGroupCreate)
	if err := plist.SetLinkPhaseChange(gcpl, g.MaxCompact, g.MinDense); err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}
	if err := plist.SetLinkCreationOrder(gcpl, g.TrackCreationOrder, g.IndexCreationOrder); err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}
	return gcpl, nil
}
