package model

import "time"

// UnitState is the record persisted per unit across hook invocations.
// It is mutated only by the reconciliation rule.
type UnitState struct {
	UnitName   string
	Charm      CharmName
	Started    bool
	ConfigHash string
	Namespace  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewUnitState returns the default record used before the first reconciliation.
func NewUnitState(unitName string, charm CharmName, namespace string) *UnitState {
	return &UnitState{
		UnitName:  unitName,
		Charm:     charm,
		Namespace: namespace,
	}
}
