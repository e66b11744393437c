// Package export writes board data to spreadsheets.
package export

import (
	"fmt"

	"github.com/bitfantasy/agileboard/internal/board/analytics"
	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/xuri/excelize/v2"
)

// CostSheet is the sheet holding the cost rows.
const CostSheet = "Costs"

var costHeaders = []string{
	"ID", "Title", "Type", "Sprint", "Assignee", "Cost Item", "Cost Type",
	"Value", "Request No.", "Order No.", "Billing Status",
}

// CostWorkbook builds the cost tracking workbook: one row per work item
// carrying cost data, then a totals block per cost type and a grand total.
// The caller owns the returned file and must Close it.
func CostWorkbook(items []entity.WorkItem, users []entity.User, sprints []entity.Sprint, today entity.Date) (*excelize.File, string, error) {
	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.Name
	}
	sprintNames := make(map[string]string, len(sprints))
	for _, s := range sprints {
		sprintNames[s.ID] = s.Name
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", CostSheet); err != nil {
		f.Close()
		return nil, "", err
	}
	sheet := CostSheet

	// 表头样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4})

	for i, h := range costHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := 2
	for _, w := range items {
		if !w.HasCost() {
			continue
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), w.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), w.Title)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(w.Type))
		if w.SprintID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), sprintNames[*w.SprintID])
		}
		if w.AssigneeID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), userNames[*w.AssigneeID])
		}
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), w.CostItem)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), string(w.CostType))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), w.CostValue)
		f.SetCellStyle(sheet, fmt.Sprintf("H%d", row), fmt.Sprintf("H%d", row), moneyStyle)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), w.RequestNum)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), w.OrderNum)
		f.SetCellValue(sheet, fmt.Sprintf("K%d", row), string(w.BillingStatus))
		row++
	}

	// 汇总
	summary := analytics.Costs(items)
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	row++
	for _, ct := range entity.CostTypes {
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), string(ct))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), summary.ByType[ct])
		f.SetCellStyle(sheet, fmt.Sprintf("H%d", row), fmt.Sprintf("H%d", row), moneyStyle)
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%d items", summary.Items))
	f.SetCellValue(sheet, fmt.Sprintf("H%d", row), summary.Total)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("K%d", row), boldStyle)

	colWidths := []float64{12, 36, 12, 16, 18, 24, 10, 14, 14, 14, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("costs_%s.xlsx", today)
	return f, filename, nil
}
