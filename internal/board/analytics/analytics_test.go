package analytics

import (
	"testing"
	"time"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, typ entity.WorkItemType, parent string) entity.WorkItem {
	w := entity.WorkItem{ID: id, Type: typ, Title: id}
	if parent != "" {
		w.ParentID = entity.StringPtr(parent)
	}
	w.ApplyDefaults()
	return w
}

func ids(items []entity.WorkItem) []string {
	out := make([]string, len(items))
	for i, w := range items {
		out[i] = w.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	a := item("A-1", entity.TypeTask, "")
	a.SprintID = entity.StringPtr("S1")
	a.Title = "Checkout flow"
	b := item("A-2", entity.TypeBug, "")
	b.Blocked = true
	b.AssigneeID = entity.StringPtr("u1")
	c := item("A-3", entity.TypeTask, "")
	c.Column = entity.ColumnDone
	items := []entity.WorkItem{a, b, c}

	assert.Equal(t, []string{"A-1", "A-3"}, ids(Apply(items, Filter{Types: []entity.WorkItemType{entity.TypeTask}})))
	backlog := ""
	assert.Equal(t, []string{"A-2", "A-3"}, ids(Apply(items, Filter{SprintID: &backlog})))
	assert.Equal(t, []string{"A-2"}, ids(Apply(items, Filter{BlockedOnly: true, AssigneeID: "u1"})))
	assert.Equal(t, []string{"A-1"}, ids(Apply(items, Filter{Text: "checkout"})))
	assert.Equal(t, []string{"A-3"}, ids(Apply(items, Filter{Columns: []entity.Column{entity.ColumnDone}})))
	assert.Len(t, Apply(items, Filter{}), 3)
}

func TestSort(t *testing.T) {
	a := item("A-1", entity.TypeTask, "")
	a.Priority, a.Effort = entity.PriorityP2, 3
	b := item("A-2", entity.TypeTask, "")
	b.Priority, b.Effort = entity.PriorityP1, 8
	b.StartDate = entity.DatePtr(entity.MustParseDate("2025-02-01"))
	c := item("A-3", entity.TypeTask, "")
	c.Priority, c.Effort = entity.PriorityP1, 1
	c.StartDate = entity.DatePtr(entity.MustParseDate("2025-01-01"))
	items := []entity.WorkItem{a, b, c}

	Sort(items, SortPriority, false)
	assert.Equal(t, []string{"A-2", "A-3", "A-1"}, ids(items))

	Sort(items, SortEffort, true)
	assert.Equal(t, []string{"A-2", "A-1", "A-3"}, ids(items))

	Sort(items, SortStartDate, false)
	assert.Equal(t, []string{"A-3", "A-2", "A-1"}, ids(items))
}

func TestTree(t *testing.T) {
	items := []entity.WorkItem{
		item("W", entity.TypeWorkstream, ""),
		item("I", entity.TypeInitiative, "W"),
		item("D", entity.TypeDelivery, "I"),
		item("T", entity.TypeTask, "D"),
		item("B", entity.TypeBug, "D"),
		item("O", entity.TypeTask, "gone"),
		item("X", entity.TypeTask, "Y"),
		item("Y", entity.TypeTask, "X"),
	}
	roots := Tree(items)
	require.Len(t, roots, 4)
	assert.Equal(t, "W", roots[0].Item.ID)
	d := roots[0].Children[0].Children[0]
	assert.Equal(t, "D", d.Item.ID)
	require.Len(t, d.Children, 2)
	assert.Equal(t, "T", d.Children[0].Item.ID)
	assert.Equal(t, "O", roots[1].Item.ID)
}

func TestHierarchyIssues(t *testing.T) {
	items := []entity.WorkItem{
		item("W", entity.TypeWorkstream, ""),
		item("I", entity.TypeInitiative, "W"),
		item("T", entity.TypeTask, "W"),
		item("D", entity.TypeDelivery, ""),
		item("B", entity.TypeBug, "nope"),
	}
	issues := HierarchyIssues(items)
	require.Len(t, issues, 3)
	assert.Equal(t, "T", issues[0].ItemID)
	assert.Contains(t, issues[0].Problem, "expected Delivery")
	assert.Equal(t, "D", issues[1].ItemID)
	assert.Equal(t, "parent not found", issues[2].Problem)
}

func TestSprintSummaries(t *testing.T) {
	sprints := []entity.Sprint{{ID: "S1", Name: "Sprint 1"}, {ID: "S2", Name: "Sprint 2"}}
	a := item("A-1", entity.TypeTask, "")
	a.SprintID, a.Effort, a.Column = entity.StringPtr("S1"), 5, entity.ColumnDone
	b := item("A-2", entity.TypeTask, "")
	b.SprintID, b.Effort, b.Blocked = entity.StringPtr("S1"), 3, true
	c := item("A-3", entity.TypeTask, "")
	c.SprintID = entity.StringPtr("deleted")

	sums := SprintSummaries(sprints, []entity.WorkItem{a, b, c})
	require.Len(t, sums, 2)
	assert.Equal(t, SprintSummary{SprintID: "S1", Name: "Sprint 1", Items: 2, Effort: 8, EffortDone: 5, Blocked: 1, Progress: 0.63}, sums[0])
	assert.Equal(t, 0, sums[1].Items)
}

func TestWorkstreamProgress(t *testing.T) {
	w := item("W", entity.TypeWorkstream, "")
	a := item("A-1", entity.TypeTask, "")
	a.WorkstreamID, a.Effort, a.Status = entity.StringPtr("W"), 2, entity.StatusClosed
	b := item("A-2", entity.TypeTask, "")
	b.WorkstreamID, b.Effort = entity.StringPtr("W"), 2

	got := WorkstreamProgressOf([]entity.WorkItem{w, a, b})
	require.Len(t, got, 1)
	assert.Equal(t, 0.5, got[0].Progress)
	assert.Equal(t, 2, got[0].Items)
}

func TestCosts(t *testing.T) {
	a := item("A-1", entity.TypeTask, "")
	a.CostType, a.CostValue, a.BillingStatus = entity.CostCAPEX, 1000.10, entity.BillingInvoiced
	b := item("A-2", entity.TypeTask, "")
	b.CostType, b.CostValue = entity.CostOPEX, 250.25
	c := item("A-3", entity.TypeTask, "")
	c.CostItem, c.CostValue = "License", 50

	sum := Costs([]entity.WorkItem{a, b, c, item("A-4", entity.TypeTask, "")})
	assert.Equal(t, 3, sum.Items)
	assert.InDelta(t, 1300.35, sum.Total, 0.001)
	assert.InDelta(t, 1000.10, sum.ByType[entity.CostCAPEX], 0.001)
	assert.InDelta(t, 50, sum.ByType[entity.CostOutros], 0.001)
	assert.InDelta(t, 300.25, sum.ByBilling[entity.BillingOpen], 0.001)
}

func TestTimeline(t *testing.T) {
	a := item("A-1", entity.TypeTask, "")
	a.StartDate = entity.DatePtr(entity.NewDate(2025, time.February, 1))
	a.EndDate = entity.DatePtr(entity.NewDate(2025, time.February, 3))
	b := item("A-2", entity.TypeTask, "")
	b.StartDate = entity.DatePtr(entity.NewDate(2025, time.January, 5))

	tl := Timeline([]entity.WorkItem{a, b, item("A-3", entity.TypeTask, "")})
	require.Len(t, tl, 2)
	assert.Equal(t, "A-2", tl[0].ID)
	assert.Equal(t, 1, tl[0].Days)
	assert.Equal(t, 3, tl[1].Days)
}
