package entity

// WorkItemType is the level of a work item in the containment hierarchy.
type WorkItemType string

const (
	TypeWorkstream WorkItemType = "Workstream"
	TypeInitiative WorkItemType = "Initiative"
	TypeDelivery   WorkItemType = "Delivery"
	TypeTask       WorkItemType = "Task"
	TypeBug        WorkItemType = "Bug"
)

// Valid reports whether t is a known work item type.
func (t WorkItemType) Valid() bool {
	switch t {
	case TypeWorkstream, TypeInitiative, TypeDelivery, TypeTask, TypeBug:
		return true
	}
	return false
}

// ParentType returns the type a parent of t is expected to have.
// Workstreams sit at the top and have no parent.
func (t WorkItemType) ParentType() (WorkItemType, bool) {
	switch t {
	case TypeInitiative:
		return TypeWorkstream, true
	case TypeDelivery:
		return TypeInitiative, true
	case TypeTask, TypeBug:
		return TypeDelivery, true
	}
	return "", false
}

// Schedulable reports whether items of this type are placed into sprints by date.
func (t WorkItemType) Schedulable() bool {
	return t == TypeTask || t == TypeBug
}

type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityP1, PriorityP2, PriorityP3, PriorityP4:
		return true
	}
	return false
}

// Rank orders priorities, P1 first.
func (p Priority) Rank() int {
	switch p {
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	case PriorityP4:
		return 4
	}
	return 5
}

// ItemStatus is the workflow status of a work item.
type ItemStatus string

const (
	StatusNew      ItemStatus = "New"
	StatusActive   ItemStatus = "Active"
	StatusResolved ItemStatus = "Resolved"
	StatusClosed   ItemStatus = "Closed"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case StatusNew, StatusActive, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Column is the kanban lane. It is tracked separately from ItemStatus.
type Column string

const (
	ColumnNew   Column = "New"
	ColumnToDo  Column = "To Do"
	ColumnDoing Column = "Doing"
	ColumnDone  Column = "Done"
)

func (c Column) Valid() bool {
	switch c {
	case ColumnNew, ColumnToDo, ColumnDoing, ColumnDone:
		return true
	}
	return false
}

type SprintStatus string

const (
	SprintPlanned SprintStatus = "Planned"
	SprintActive  SprintStatus = "Active"
	SprintClosed  SprintStatus = "Closed"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintClosed:
		return true
	}
	return false
}

type CostType string

const (
	CostOPEX   CostType = "OPEX"
	CostCAPEX  CostType = "CAPEX"
	CostSEVIM  CostType = "SEVIM"
	CostOutros CostType = "OUTROS"
)

// CostTypes lists cost types in report order.
var CostTypes = []CostType{CostOPEX, CostCAPEX, CostSEVIM, CostOutros}

// Valid accepts the empty value, cost tracking is optional.
func (c CostType) Valid() bool {
	switch c {
	case "", CostOPEX, CostCAPEX, CostSEVIM, CostOutros:
		return true
	}
	return false
}

type BillingStatus string

const (
	BillingOpen        BillingStatus = "Open"
	BillingOrderIssued BillingStatus = "OrderIssued"
	BillingInvoiced    BillingStatus = "Invoiced"
)

// BillingStatuses lists billing states in report order.
var BillingStatuses = []BillingStatus{BillingOpen, BillingOrderIssued, BillingInvoiced}

func (b BillingStatus) Valid() bool {
	switch b {
	case "", BillingOpen, BillingOrderIssued, BillingInvoiced:
		return true
	}
	return false
}
