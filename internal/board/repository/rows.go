package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitfantasy/agileboard/internal/board/entity"
)

// attachmentList is the jsonb attachments column.
type attachmentList []entity.Attachment

func (a attachmentList) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *attachmentList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan attachments: %v", value)
	}
	return json.Unmarshal(data, a)
}

type profileRow struct {
	ID        string    `gorm:"column:id;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"column:name"`
	AvatarURL *string   `gorm:"column:avatar_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (profileRow) TableName() string { return "profiles" }

func (r profileRow) toEntity() entity.User {
	return entity.User{ID: r.ID, Name: r.Name, AvatarURL: r.AvatarURL}
}

type sprintRow struct {
	ID        string      `gorm:"column:id;primaryKey;default:gen_random_uuid()"`
	Name      string      `gorm:"column:name"`
	StartDate entity.Date `gorm:"column:start_date;type:date"`
	EndDate   entity.Date `gorm:"column:end_date;type:date"`
	Objective string      `gorm:"column:objective"`
	Status    string      `gorm:"column:status"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
}

func (sprintRow) TableName() string { return "sprints" }

func (r sprintRow) toEntity() entity.Sprint {
	status := entity.SprintStatus(r.Status)
	if status == "" {
		status = entity.SprintPlanned
	}
	return entity.Sprint{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Objective: r.Objective,
		Status:    status,
		CreatedAt: r.CreatedAt,
	}
}

func sprintRowFrom(s entity.Sprint) sprintRow {
	return sprintRow{
		ID:        s.ID,
		Name:      s.Name,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		Objective: s.Objective,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
	}
}

type workItemRow struct {
	ID            string         `gorm:"column:id;primaryKey"`
	Type          string         `gorm:"column:type"`
	ParentID      *string        `gorm:"column:parent_id"`
	Title         string         `gorm:"column:title"`
	Description   string         `gorm:"column:description"`
	Priority      string         `gorm:"column:priority"`
	Effort        *int           `gorm:"column:effort"`
	KPI           string         `gorm:"column:kpi"`
	KPIImpact     string         `gorm:"column:kpi_impact"`
	AssigneeID    *string        `gorm:"column:assignee_id"`
	Status        string         `gorm:"column:status"`
	BoardColumn   string         `gorm:"column:board_column"`
	SprintID      *string        `gorm:"column:sprint_id"`
	WorkstreamID  *string        `gorm:"column:workstream_id"`
	Blocked       bool           `gorm:"column:blocked"`
	BlockReason   string         `gorm:"column:block_reason"`
	StartDate     entity.Date    `gorm:"column:start_date;type:date"`
	EndDate       entity.Date    `gorm:"column:end_date;type:date"`
	Attachments   attachmentList `gorm:"column:attachments;type:jsonb"`
	CostItem      string         `gorm:"column:cost_item"`
	CostType      string         `gorm:"column:cost_type"`
	CostValue     *float64       `gorm:"column:cost_value"`
	RequestNum    string         `gorm:"column:request_num"`
	OrderNum      string         `gorm:"column:order_num"`
	BillingStatus string         `gorm:"column:billing_status"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (workItemRow) TableName() string { return "work_items" }

// toEntity maps a row onto the local shape, substituting defaults for nulls.
func (r workItemRow) toEntity() entity.WorkItem {
	w := entity.WorkItem{
		ID:            r.ID,
		Type:          entity.WorkItemType(r.Type),
		ParentID:      r.ParentID,
		Title:         r.Title,
		Description:   r.Description,
		Priority:      entity.Priority(r.Priority),
		KPI:           r.KPI,
		KPIImpact:     r.KPIImpact,
		AssigneeID:    r.AssigneeID,
		Status:        entity.ItemStatus(r.Status),
		Column:        entity.Column(r.BoardColumn),
		SprintID:      r.SprintID,
		WorkstreamID:  r.WorkstreamID,
		Blocked:       r.Blocked,
		BlockReason:   r.BlockReason,
		Attachments:   []entity.Attachment(r.Attachments),
		CostItem:      r.CostItem,
		CostType:      entity.CostType(r.CostType),
		RequestNum:    r.RequestNum,
		OrderNum:      r.OrderNum,
		BillingStatus: entity.BillingStatus(r.BillingStatus),
		CreatedAt:     r.CreatedAt,
	}
	if r.Effort != nil {
		w.Effort = *r.Effort
	}
	if r.CostValue != nil {
		w.CostValue = *r.CostValue
	}
	if !r.StartDate.IsZero() {
		w.StartDate = entity.DatePtr(r.StartDate)
	}
	if !r.EndDate.IsZero() {
		w.EndDate = entity.DatePtr(r.EndDate)
	}
	w.ApplyDefaults()
	return w
}

func workItemRowFrom(w entity.WorkItem) workItemRow {
	effort := w.Effort
	r := workItemRow{
		ID:            w.ID,
		Type:          string(w.Type),
		ParentID:      w.ParentID,
		Title:         w.Title,
		Description:   w.Description,
		Priority:      string(w.Priority),
		Effort:        &effort,
		KPI:           w.KPI,
		KPIImpact:     w.KPIImpact,
		AssigneeID:    w.AssigneeID,
		Status:        string(w.Status),
		BoardColumn:   string(w.Column),
		SprintID:      w.SprintID,
		WorkstreamID:  w.WorkstreamID,
		Blocked:       w.Blocked,
		BlockReason:   w.BlockReason,
		Attachments:   attachmentList(w.Attachments),
		CostItem:      w.CostItem,
		CostType:      string(w.CostType),
		RequestNum:    w.RequestNum,
		OrderNum:      w.OrderNum,
		BillingStatus: string(w.BillingStatus),
		CreatedAt:     w.CreatedAt,
	}
	if w.CostValue != 0 {
		v := w.CostValue
		r.CostValue = &v
	}
	if w.StartDate != nil {
		r.StartDate = *w.StartDate
	}
	if w.EndDate != nil {
		r.EndDate = *w.EndDate
	}
	return r
}

// workItemColumns translates the set fields of a patch into remote column
// names. Unset fields are left out entirely.
func workItemColumns(p entity.WorkItemPatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Type != nil {
		cols["type"] = string(*p.Type)
	}
	if p.ParentID.Set {
		cols["parent_id"] = p.ParentID.Ptr()
	}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Priority != nil {
		cols["priority"] = string(*p.Priority)
	}
	if p.Effort != nil {
		cols["effort"] = *p.Effort
	}
	if p.KPI != nil {
		cols["kpi"] = *p.KPI
	}
	if p.KPIImpact != nil {
		cols["kpi_impact"] = *p.KPIImpact
	}
	if p.AssigneeID.Set {
		cols["assignee_id"] = p.AssigneeID.Ptr()
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.Column != nil {
		cols["board_column"] = string(*p.Column)
	}
	if p.SprintID.Set {
		cols["sprint_id"] = p.SprintID.Ptr()
	}
	if p.WorkstreamID.Set {
		cols["workstream_id"] = p.WorkstreamID.Ptr()
	}
	if p.Blocked != nil {
		cols["blocked"] = *p.Blocked
	}
	if p.BlockReason != nil {
		cols["block_reason"] = *p.BlockReason
	}
	if p.StartDate.Set {
		cols["start_date"] = p.StartDate.V
	}
	if p.EndDate.Set {
		cols["end_date"] = p.EndDate.V
	}
	if p.Attachments != nil {
		cols["attachments"] = attachmentList(*p.Attachments)
	}
	if p.CostItem != nil {
		cols["cost_item"] = *p.CostItem
	}
	if p.CostType != nil {
		cols["cost_type"] = string(*p.CostType)
	}
	if p.CostValue != nil {
		cols["cost_value"] = *p.CostValue
	}
	if p.RequestNum != nil {
		cols["request_num"] = *p.RequestNum
	}
	if p.OrderNum != nil {
		cols["order_num"] = *p.OrderNum
	}
	if p.BillingStatus != nil {
		cols["billing_status"] = string(*p.BillingStatus)
	}
	return cols
}

func sprintColumns(p entity.SprintPatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.StartDate != nil {
		cols["start_date"] = *p.StartDate
	}
	if p.EndDate != nil {
		cols["end_date"] = *p.EndDate
	}
	if p.Objective != nil {
		cols["objective"] = *p.Objective
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	return cols
}
