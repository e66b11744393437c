package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	assert := assert.New(t)

	var s Sprint
	err := json.Unmarshal([]byte(`{"startDate":"2025-01-01","endDate":"2025-01-14"}`), &s)
	require.NoError(t, err)
	assert.Equal("2025-01-01", s.StartDate.String())
	assert.Equal(NewDate(2025, time.January, 14), s.EndDate)

	out, err := json.Marshal(s.StartDate)
	require.NoError(t, err)
	assert.Equal(`"2025-01-01"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal("null", string(out))

	err = json.Unmarshal([]byte(`{"startDate":"01/02/2025"}`), &s)
	assert.Error(err)
}

func TestDateArithmetic(t *testing.T) {
	d := MustParseDate("2025-01-31")
	assert.Equal(t, "2025-02-01", d.AddDays(1).String())
	assert.Equal(t, "2025-02-14", d.AddDays(14).String())

	start, end := MustParseDate("2025-03-01"), MustParseDate("2025-03-14")
	assert.True(t, start.Within(start, end))
	assert.True(t, end.Within(start, end))
	assert.False(t, end.AddDays(1).Within(start, end))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-06-03", d.String())

	require.NoError(t, d.Scan("2025-06-04T00:00:00Z"))
	assert.Equal(t, "2025-06-04", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNullableDistinguishesAbsentFromNull(t *testing.T) {
	assert := assert.New(t)

	var p WorkItemPatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"X","sprintId":null,"assigneeId":"u1"}`), &p))

	assert.Equal("X", *p.Title)
	assert.True(p.SprintID.Set)
	assert.False(p.SprintID.Valid)
	assert.True(p.AssigneeID.Valid)
	assert.Equal("u1", p.AssigneeID.V)
	assert.False(p.ParentID.Set)
	assert.False(p.StartDate.Set)
}

func TestWorkItemPatchApply(t *testing.T) {
	assert := assert.New(t)

	item := WorkItem{ID: "A-00001", Title: "old", SprintID: StringPtr("s1"), Effort: 3}
	item.ApplyDefaults()

	effort := 8
	title := "new"
	WorkItemPatch{Title: &title, Effort: &effort, SprintID: Null[string]()}.Apply(&item)

	assert.Equal("new", item.Title)
	assert.Equal(8, item.Effort)
	assert.Nil(item.SprintID)
	assert.Equal(PriorityP3, item.Priority)
	assert.Equal(ColumnNew, item.Column)
	assert.NotNil(item.Attachments)
}

func TestWorkItemPatchValidate(t *testing.T) {
	neg := -1
	assert.ErrorIs(t, WorkItemPatch{Effort: &neg}.Validate(), ErrInvalidField)

	bad := Column("Later")
	assert.ErrorIs(t, WorkItemPatch{Column: &bad}.Validate(), ErrInvalidField)

	ok := ColumnToDo
	assert.NoError(t, WorkItemPatch{Column: &ok}.Validate())
	assert.True(t, WorkItemPatch{}.IsEmpty())
	assert.False(t, WorkItemPatch{SprintID: Null[string]()}.IsEmpty())
}

func TestSprintPatchValidate(t *testing.T) {
	start, end := MustParseDate("2025-01-14"), MustParseDate("2025-01-01")
	assert.ErrorIs(t, SprintPatch{StartDate: &start, EndDate: &end}.Validate(), ErrInvalidField)
}

func TestCloneIsDeep(t *testing.T) {
	item := WorkItem{SprintID: StringPtr("s1"), Attachments: []Attachment{{ID: "a"}}}
	c := item.Clone()
	*c.SprintID = "s2"
	c.Attachments[0].ID = "b"
	assert.Equal(t, "s1", *item.SprintID)
	assert.Equal(t, "a", item.Attachments[0].ID)
}

func TestCloneKeepsEmptyAttachments(t *testing.T) {
	for _, item := range []WorkItem{{}, {Attachments: []Attachment{}}} {
		c := item.Clone()
		assert.NotNil(t, c.Attachments)
		assert.Empty(t, c.Attachments)

		out, err := json.Marshal(c)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"attachments":[]`)
	}
}

func TestEmptyDateInPatchClears(t *testing.T) {
	assert := assert.New(t)

	var p WorkItemPatch
	require.NoError(t, json.Unmarshal([]byte(`{"startDate":"","endDate":"2025-02-01"}`), &p))
	assert.True(p.StartDate.Set)
	assert.False(p.StartDate.Valid)
	assert.Nil(p.StartDate.Ptr())
	assert.True(p.EndDate.Valid)

	item := WorkItem{StartDate: DatePtr(MustParseDate("2025-01-01"))}
	p.Apply(&item)
	assert.Nil(item.StartDate)
	require.NotNil(t, item.EndDate)
	assert.Equal("2025-02-01", item.EndDate.String())

	assert.Nil(Some(Date{}).Ptr())
}

func TestSprintContains(t *testing.T) {
	s := Sprint{StartDate: MustParseDate("2025-01-01"), EndDate: MustParseDate("2025-01-14")}
	assert.True(t, s.Contains(MustParseDate("2025-01-01"), MustParseDate("2025-01-14")))
	assert.False(t, s.Contains(MustParseDate("2024-12-31"), MustParseDate("2025-01-05")))
	assert.False(t, Sprint{}.Contains(MustParseDate("2025-01-01"), MustParseDate("2025-01-02")))
}

func TestParentType(t *testing.T) {
	p, ok := TypeBug.ParentType()
	assert.True(t, ok)
	assert.Equal(t, TypeDelivery, p)
	_, ok = TypeWorkstream.ParentType()
	assert.False(t, ok)
}
