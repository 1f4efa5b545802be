// Package lferrors holds the sentinel errors for conditions that spec
// the core treats as programming errors rather than transient failures.
package lferrors

import "errors"

var (
	// ErrSlotExhausted is raised when a thread's hazard slots are all occupied.
	ErrSlotExhausted = errors.New("lockfreeset: all hazard slots occupied")
	// ErrUnknownHazard is raised when releasing or retiring a pointer not held in any slot.
	ErrUnknownHazard = errors.New("lockfreeset: pointer not held by any hazard slot")
	// ErrNotRegistered is raised when a thread record is used with a controller other than the one that issued it.
	ErrNotRegistered = errors.New("lockfreeset: handle not registered with this controller")
)
