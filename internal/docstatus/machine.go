// Package docstatus owns the lifecycle state machines for commercial
// documents. Sales orders and purchase orders share the machine shape but
// not the state set; both start at DRAFT and only DRAFT documents may be
// edited or deleted.
package docstatus

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Status is a document lifecycle state.
type Status string

// Sales order states.
const (
	SalesDraft      Status = "DRAFT"
	SalesConfirmed  Status = "CONFIRMED"
	SalesProcessing Status = "PROCESSING"
	SalesShipped    Status = "SHIPPED"
	SalesDelivered  Status = "DELIVERED"
	SalesCancelled  Status = "CANCELLED"
)

// Purchase order states.
const (
	PurchaseDraft             Status = "DRAFT"
	PurchaseSent              Status = "SENT"
	PurchaseConfirmed         Status = "CONFIRMED"
	PurchasePartiallyReceived Status = "PARTIALLY_RECEIVED"
	PurchaseReceived          Status = "RECEIVED"
	PurchaseCancelled         Status = "CANCELLED"
)

// Machine validates transitions against an adjacency table.
type Machine struct {
	kind        string
	transitions map[Status][]Status
}

// SalesOrders returns the sales order machine:
// DRAFT → CONFIRMED → PROCESSING → SHIPPED → DELIVERED, with CANCELLED
// reachable from every non-terminal state.
func SalesOrders() Machine {
	return Machine{
		kind: "sales order",
		transitions: map[Status][]Status{
			SalesDraft:      {SalesConfirmed, SalesCancelled},
			SalesConfirmed:  {SalesProcessing, SalesCancelled},
			SalesProcessing: {SalesShipped, SalesCancelled},
			SalesShipped:    {SalesDelivered, SalesCancelled},
			SalesDelivered:  {},
			SalesCancelled:  {},
		},
	}
}

// PurchaseOrders returns the purchase order machine:
// DRAFT → SENT → CONFIRMED → PARTIALLY_RECEIVED → RECEIVED, with CANCELLED
// reachable from every non-terminal state. A confirmed order may be received
// in full without passing through PARTIALLY_RECEIVED.
func PurchaseOrders() Machine {
	return Machine{
		kind: "purchase order",
		transitions: map[Status][]Status{
			PurchaseDraft:             {PurchaseSent, PurchaseCancelled},
			PurchaseSent:              {PurchaseConfirmed, PurchaseCancelled},
			PurchaseConfirmed:         {PurchasePartiallyReceived, PurchaseReceived, PurchaseCancelled},
			PurchasePartiallyReceived: {PurchaseReceived, PurchaseCancelled},
			PurchaseReceived:          {},
			PurchaseCancelled:         {},
		},
	}
}

// Initial is the state every document is created in.
func (m Machine) Initial() Status {
	return Status("DRAFT")
}

// Known reports whether the machine recognises the state at all.
func (m Machine) Known(s Status) bool {
	_, ok := m.transitions[s]
	return ok
}

// Terminal reports whether no further transition leaves the state.
func (m Machine) Terminal(s Status) bool {
	next, ok := m.transitions[s]
	return ok && len(next) == 0
}

// CanEdit reports whether header/line edits are allowed in the state.
func (m Machine) CanEdit(s Status) bool {
	return s == m.Initial()
}

// CanDelete reports whether the document may be deleted in the state.
func (m Machine) CanDelete(s Status) bool {
	return s == m.Initial()
}

// Transition validates current → target. A target outside the machine's
// state set fails with ErrInvalidStatus before anything else; a recognised
// but non-adjacent target fails with ErrInvalidStateTransition.
func (m Machine) Transition(current, target Status) error {
	if !m.Known(target) {
		return fmt.Errorf("%w: %q is not a %s status", shared.ErrInvalidStatus, target, m.kind)
	}
	if !m.Known(current) {
		return fmt.Errorf("%w: %q is not a %s status", shared.ErrInvalidStatus, current, m.kind)
	}
	for _, next := range m.transitions[current] {
		if next == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot move from %s to %s", shared.ErrInvalidStateTransition, m.kind, current, target)
}
