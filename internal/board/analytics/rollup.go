package analytics

import (
	"math"
	"sort"

	"github.com/bitfantasy/agileboard/internal/board/entity"
)

// Node is a work item with its children in load order.
type Node struct {
	Item     entity.WorkItem `json:"item"`
	Children []*Node         `json:"children"`
}

// Tree builds the Workstream > Initiative > Delivery > Task/Bug hierarchy
// from parentId. Items whose parent is missing, or that sit on a parent
// cycle, become roots.
func Tree(items []entity.WorkItem) []*Node {
	nodes := make(map[string]*Node, len(items))
	for _, w := range items {
		nodes[w.ID] = &Node{Item: w, Children: []*Node{}}
	}

	var roots []*Node
	for _, w := range items {
		n := nodes[w.ID]
		parent, ok := nodes[deref(w.ParentID)]
		if !ok || parent == n || createsCycle(nodes, w.ID, deref(w.ParentID)) {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots
}

// createsCycle reports whether following parents from parentID leads back
// to id.
func createsCycle(nodes map[string]*Node, id, parentID string) bool {
	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == id {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		n, ok := nodes[cur]
		if !ok {
			return false
		}
		cur = deref(n.Item.ParentID)
	}
	return false
}

// Issue is a hierarchy inconsistency. The board stores such items as they
// are; this only reports them.
type Issue struct {
	ItemID   string `json:"itemId"`
	ParentID string `json:"parentId"`
	Problem  string `json:"problem"`
}

func HierarchyIssues(items []entity.WorkItem) []Issue {
	byID := make(map[string]entity.WorkItem, len(items))
	for _, w := range items {
		byID[w.ID] = w
	}
	var issues []Issue
	for _, w := range items {
		parentID := deref(w.ParentID)
		want, needsParent := w.Type.ParentType()
		switch {
		case parentID == "" && needsParent:
			issues = append(issues, Issue{ItemID: w.ID, Problem: "missing parent " + string(want)})
		case parentID == "":
		case !needsParent:
			issues = append(issues, Issue{ItemID: w.ID, ParentID: parentID, Problem: string(w.Type) + " must not have a parent"})
		default:
			parent, ok := byID[parentID]
			if !ok {
				issues = append(issues, Issue{ItemID: w.ID, ParentID: parentID, Problem: "parent not found"})
			} else if parent.Type != want {
				issues = append(issues, Issue{ItemID: w.ID, ParentID: parentID, Problem: "parent is " + string(parent.Type) + ", expected " + string(want)})
			}
		}
	}
	return issues
}

// SprintSummary is the effort picture of one sprint.
type SprintSummary struct {
	SprintID   string  `json:"sprintId"`
	Name       string  `json:"name"`
	Items      int     `json:"items"`
	Effort     int     `json:"effort"`
	EffortDone int     `json:"effortDone"`
	Blocked    int     `json:"blocked"`
	Progress   float64 `json:"progress"`
}

// SprintSummaries returns one summary per sprint in load order.
func SprintSummaries(sprints []entity.Sprint, items []entity.WorkItem) []SprintSummary {
	idx := make(map[string]int, len(sprints))
	out := make([]SprintSummary, len(sprints))
	for i, s := range sprints {
		idx[s.ID] = i
		out[i] = SprintSummary{SprintID: s.ID, Name: s.Name}
	}
	for _, w := range items {
		i, ok := idx[deref(w.SprintID)]
		if !ok {
			continue
		}
		sum := &out[i]
		sum.Items++
		sum.Effort += w.Effort
		if w.Column == entity.ColumnDone {
			sum.EffortDone += w.Effort
		}
		if w.Blocked {
			sum.Blocked++
		}
	}
	for i := range out {
		out[i].Progress = ratio(out[i].EffortDone, out[i].Effort)
	}
	return out
}

// WorkstreamProgress is effort completion under one workstream.
type WorkstreamProgress struct {
	WorkstreamID string  `json:"workstreamId"`
	Title        string  `json:"title"`
	Items        int     `json:"items"`
	Effort       int     `json:"effort"`
	EffortDone   int     `json:"effortDone"`
	Progress     float64 `json:"progress"`
}

// WorkstreamProgressOf groups items by workstreamId. Workstreams come out
// in load order.
func WorkstreamProgressOf(items []entity.WorkItem) []WorkstreamProgress {
	var out []WorkstreamProgress
	idx := map[string]int{}
	for _, w := range items {
		if w.Type == entity.TypeWorkstream {
			idx[w.ID] = len(out)
			out = append(out, WorkstreamProgress{WorkstreamID: w.ID, Title: w.Title})
		}
	}
	for _, w := range items {
		i, ok := idx[deref(w.WorkstreamID)]
		if !ok || w.Type == entity.TypeWorkstream {
			continue
		}
		p := &out[i]
		p.Items++
		p.Effort += w.Effort
		if w.Column == entity.ColumnDone || w.Status == entity.StatusClosed {
			p.EffortDone += w.Effort
		}
	}
	for i := range out {
		out[i].Progress = ratio(out[i].EffortDone, out[i].Effort)
	}
	return out
}

// CostSummary totals cost tracking fields.
type CostSummary struct {
	Total     float64                          `json:"total"`
	Items     int                              `json:"items"`
	ByType    map[entity.CostType]float64      `json:"byType"`
	ByBilling map[entity.BillingStatus]float64 `json:"byBilling"`
}

func Costs(items []entity.WorkItem) CostSummary {
	sum := CostSummary{
		ByType:    make(map[entity.CostType]float64),
		ByBilling: make(map[entity.BillingStatus]float64),
	}
	for _, w := range items {
		if !w.HasCost() {
			continue
		}
		sum.Items++
		sum.Total += w.CostValue
		costType := w.CostType
		if costType == "" {
			costType = entity.CostOutros
		}
		sum.ByType[costType] += w.CostValue
		billing := w.BillingStatus
		if billing == "" {
			billing = entity.BillingOpen
		}
		sum.ByBilling[billing] += w.CostValue
	}
	sum.Total = round2(sum.Total)
	for k, v := range sum.ByType {
		sum.ByType[k] = round2(v)
	}
	for k, v := range sum.ByBilling {
		sum.ByBilling[k] = round2(v)
	}
	return sum
}

// TimelineEntry is one bar on the timeline.
type TimelineEntry struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Type      entity.WorkItemType `json:"type"`
	StartDate entity.Date         `json:"startDate"`
	EndDate   entity.Date         `json:"endDate"`
	Days      int                 `json:"days"`
	SprintID  *string             `json:"sprintId"`
}

// Timeline lists dated items by start date. A missing end date is treated
// as a one day item.
func Timeline(items []entity.WorkItem) []TimelineEntry {
	var out []TimelineEntry
	for _, w := range items {
		if w.StartDate == nil {
			continue
		}
		end := *w.StartDate
		if w.EndDate != nil && !w.EndDate.Before(end) {
			end = *w.EndDate
		}
		days := int(end.Time().Sub(w.StartDate.Time()).Hours()/24) + 1
		out = append(out, TimelineEntry{
			ID:        w.ID,
			Title:     w.Title,
			Type:      w.Type,
			StartDate: *w.StartDate,
			EndDate:   end,
			Days:      days,
			SprintID:  w.SprintID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func ratio(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(done) / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
