// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch

import (
	"fmt"
	"sync"

	"github.com/basislabs/basis/unit"
)

// UnitFactory constructs a unit's handlers and wires them to u's
// Manager, given the unit's declared command-line arguments. Real
// deployments register one factory per unit_type named in a manifest
// (the Go analogue of the original's per-unit shared object); this
// package only runs what's registered.
type UnitFactory func(u *unit.Unit, args *UnitArgs) error

var (
	registryMu sync.Mutex
	registry   = make(map[string]UnitFactory)
)

// RegisterUnitFactory makes unitType available to BuildUnit. Typically
// called from an init() in the package that implements that unit type.
func RegisterUnitFactory(unitType string, factory UnitFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[unitType] = factory
}

// BuildUnit looks up def.UnitType's registered factory and runs it
// against u, having first coerced def.Args per kinds.
func BuildUnit(u *unit.Unit, def UnitDefinition, kinds map[string]ArgKind) error {
	registryMu.Lock()
	factory, ok := registry[def.UnitType]
	registryMu.Unlock()
	if !ok {
		return fmt.Errorf("launch: no unit factory registered for unit_type %q", def.UnitType)
	}

	args, err := NewUnitArgs(def.UnitType, kinds, def.Args)
	if err != nil {
		return err
	}
	return factory(u, args)
}
