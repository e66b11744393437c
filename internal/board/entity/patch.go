package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidField is wrapped by validation failures on drafts and patches.
var ErrInvalidField = errors.New("invalid field")

// WorkItemPatch is a partial work item update. Only fields that are set are
// merged locally and written remotely.
type WorkItemPatch struct {
	Type         *WorkItemType    `json:"type,omitempty"`
	ParentID     Nullable[string] `json:"parentId"`
	Title        *string          `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Priority     *Priority        `json:"priority,omitempty"`
	Effort       *int             `json:"effort,omitempty"`
	KPI          *string          `json:"kpi,omitempty"`
	KPIImpact    *string          `json:"kpiImpact,omitempty"`
	AssigneeID   Nullable[string] `json:"assigneeId"`
	Status       *ItemStatus      `json:"status,omitempty"`
	Column       *Column          `json:"column,omitempty"`
	SprintID     Nullable[string] `json:"sprintId"`
	WorkstreamID Nullable[string] `json:"workstreamId"`
	Blocked      *bool            `json:"blocked,omitempty"`
	BlockReason  *string          `json:"blockReason,omitempty"`
	StartDate    Nullable[Date]   `json:"startDate"`
	EndDate      Nullable[Date]   `json:"endDate"`
	Attachments  *[]Attachment    `json:"attachments,omitempty"`

	CostItem      *string        `json:"costItem,omitempty"`
	CostType      *CostType      `json:"costType,omitempty"`
	CostValue     *float64       `json:"costValue,omitempty"`
	RequestNum    *string        `json:"requestNum,omitempty"`
	OrderNum      *string        `json:"orderNum,omitempty"`
	BillingStatus *BillingStatus `json:"billingStatus,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p WorkItemPatch) IsEmpty() bool {
	return p.Type == nil && !p.ParentID.Set && p.Title == nil && p.Description == nil &&
		p.Priority == nil && p.Effort == nil && p.KPI == nil && p.KPIImpact == nil &&
		!p.AssigneeID.Set && p.Status == nil && p.Column == nil && !p.SprintID.Set &&
		!p.WorkstreamID.Set && p.Blocked == nil && p.BlockReason == nil &&
		!p.StartDate.Set && !p.EndDate.Set && p.Attachments == nil &&
		p.CostItem == nil && p.CostType == nil && p.CostValue == nil &&
		p.RequestNum == nil && p.OrderNum == nil && p.BillingStatus == nil
}

func (p WorkItemPatch) Validate() error {
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidField, *p.Type)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalidField, *p.Priority)
	}
	if p.Effort != nil && *p.Effort < 0 {
		return fmt.Errorf("%w: effort must not be negative", ErrInvalidField)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidField, *p.Status)
	}
	if p.Column != nil && !p.Column.Valid() {
		return fmt.Errorf("%w: column %q", ErrInvalidField, *p.Column)
	}
	if p.CostType != nil && !p.CostType.Valid() {
		return fmt.Errorf("%w: costType %q", ErrInvalidField, *p.CostType)
	}
	if p.BillingStatus != nil && !p.BillingStatus.Valid() {
		return fmt.Errorf("%w: billingStatus %q", ErrInvalidField, *p.BillingStatus)
	}
	return nil
}

// Apply merges the set fields into w.
func (p WorkItemPatch) Apply(w *WorkItem) {
	if p.Type != nil {
		w.Type = *p.Type
	}
	if p.ParentID.Set {
		w.ParentID = p.ParentID.Ptr()
	}
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
	if p.Priority != nil {
		w.Priority = *p.Priority
	}
	if p.Effort != nil {
		w.Effort = *p.Effort
	}
	if p.KPI != nil {
		w.KPI = *p.KPI
	}
	if p.KPIImpact != nil {
		w.KPIImpact = *p.KPIImpact
	}
	if p.AssigneeID.Set {
		w.AssigneeID = p.AssigneeID.Ptr()
	}
	if p.Status != nil {
		w.Status = *p.Status
	}
	if p.Column != nil {
		w.Column = *p.Column
	}
	if p.SprintID.Set {
		w.SprintID = p.SprintID.Ptr()
	}
	if p.WorkstreamID.Set {
		w.WorkstreamID = p.WorkstreamID.Ptr()
	}
	if p.Blocked != nil {
		w.Blocked = *p.Blocked
	}
	if p.BlockReason != nil {
		w.BlockReason = *p.BlockReason
	}
	if p.StartDate.Set {
		w.StartDate = p.StartDate.Ptr()
	}
	if p.EndDate.Set {
		w.EndDate = p.EndDate.Ptr()
	}
	if p.Attachments != nil {
		w.Attachments = append([]Attachment{}, (*p.Attachments)...)
	}
	if p.CostItem != nil {
		w.CostItem = *p.CostItem
	}
	if p.CostType != nil {
		w.CostType = *p.CostType
	}
	if p.CostValue != nil {
		w.CostValue = *p.CostValue
	}
	if p.RequestNum != nil {
		w.RequestNum = *p.RequestNum
	}
	if p.OrderNum != nil {
		w.OrderNum = *p.OrderNum
	}
	if p.BillingStatus != nil {
		w.BillingStatus = *p.BillingStatus
	}
}

// SprintPatch carries the fields of a sprint create or update.
type SprintPatch struct {
	Name      *string       `json:"name,omitempty"`
	StartDate *Date         `json:"startDate,omitempty"`
	EndDate   *Date         `json:"endDate,omitempty"`
	Objective *string       `json:"objective,omitempty"`
	Status    *SprintStatus `json:"status,omitempty"`
}

func (p SprintPatch) IsEmpty() bool {
	return p.Name == nil && p.StartDate == nil && p.EndDate == nil && p.Objective == nil && p.Status == nil
}

func (p SprintPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidField, *p.Status)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("%w: endDate %s before startDate %s", ErrInvalidField, p.EndDate, p.StartDate)
	}
	return nil
}

func (p SprintPatch) Apply(s *Sprint) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		s.EndDate = *p.EndDate
	}
	if p.Objective != nil {
		s.Objective = *p.Objective
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
}
