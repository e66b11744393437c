package entity

import (
	"time"
)

// User 团队成员
type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Sprint 迭代
type Sprint struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	StartDate Date         `json:"startDate"`
	EndDate   Date         `json:"endDate"`
	Objective string       `json:"objective"`
	Status    SprintStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Contains reports whether the whole range [start, end] falls inside the
// sprint window, bounds included.
func (s Sprint) Contains(start, end Date) bool {
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return false
	}
	return start.Within(s.StartDate, s.EndDate) && end.Within(s.StartDate, s.EndDate)
}

// Attachment is a file stored in the attachments bucket. ID is the object path.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url"`
}

// WorkItem 工作项
type WorkItem struct {
	ID           string       `json:"id"`
	Type         WorkItemType `json:"type"`
	ParentID     *string      `json:"parentId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Priority     Priority     `json:"priority"`
	Effort       int          `json:"effort"`
	KPI          string       `json:"kpi"`
	KPIImpact    string       `json:"kpiImpact"`
	AssigneeID   *string      `json:"assigneeId"`
	Status       ItemStatus   `json:"status"`
	Column       Column       `json:"column"`
	SprintID     *string      `json:"sprintId"`
	WorkstreamID *string      `json:"workstreamId"`
	Blocked      bool         `json:"blocked"`
	BlockReason  string       `json:"blockReason"`
	StartDate    *Date        `json:"startDate"`
	EndDate      *Date        `json:"endDate"`
	Attachments  []Attachment `json:"attachments"`

	CostItem      string        `json:"costItem,omitempty"`
	CostType      CostType      `json:"costType,omitempty"`
	CostValue     float64       `json:"costValue,omitempty"`
	RequestNum    string        `json:"requestNum,omitempty"`
	OrderNum      string        `json:"orderNum,omitempty"`
	BillingStatus BillingStatus `json:"billingStatus,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ApplyDefaults fills the fields a freshly read or created item must never
// leave empty.
func (w *WorkItem) ApplyDefaults() {
	if w.Type == "" {
		w.Type = TypeTask
	}
	if w.Priority == "" {
		w.Priority = PriorityP3
	}
	if w.Status == "" {
		w.Status = StatusNew
	}
	if w.Column == "" {
		w.Column = ColumnNew
	}
	if w.Effort < 0 {
		w.Effort = 0
	}
	if w.Attachments == nil {
		w.Attachments = []Attachment{}
	}
}

// HasCost reports whether any cost tracking field is filled in.
func (w *WorkItem) HasCost() bool {
	return w.CostItem != "" || w.CostType != "" || w.CostValue != 0 ||
		w.RequestNum != "" || w.OrderNum != "" || w.BillingStatus != ""
}

// Clone returns a deep copy.
func (w WorkItem) Clone() WorkItem {
	c := w
	c.ParentID = clonePtr(w.ParentID)
	c.AssigneeID = clonePtr(w.AssigneeID)
	c.SprintID = clonePtr(w.SprintID)
	c.WorkstreamID = clonePtr(w.WorkstreamID)
	c.StartDate = clonePtr(w.StartDate)
	c.EndDate = clonePtr(w.EndDate)
	c.Attachments = append(make([]Attachment, 0, len(w.Attachments)), w.Attachments...)
	return c
}

func (u User) Clone() User {
	c := u
	c.AvatarURL = clonePtr(u.AvatarURL)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// StringPtr is a helper for optional string fields.
func StringPtr(s string) *string { return &s }

// DatePtr is a helper for optional date fields.
func DatePtr(d Date) *Date { return &d }
