package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/xuri/excelize/v2"
)

// SheetName имя листа с занятиями недели
const SheetName = "Week"

var sheetHeaders = []string{
	"Date", "Day", "Start", "End", "Subject", "Contract", "Teacher", "Customers", "State", "Blocked", "Notes",
}

// WeekSheet выгрузка недели в xlsx: строка на занятие, в порядке View.Lessons
type WeekSheet struct {
	View     *model.WeekView
	Subjects map[int64]model.Subject
}

func (w WeekSheet) Render() ([]byte, error) {
	if w.View == nil {
		return nil, fmt.Errorf("week view is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range sheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(sheetHeaders), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	contracts := make(map[int64]*model.Contract, len(w.View.Contracts))
	for _, wc := range w.View.Contracts {
		contracts[wc.Contract.ID] = wc.Contract
	}

	row := 2
	for _, l := range w.View.Lessons {
		c, ok := contracts[l.ContractID]
		if !ok {
			continue
		}

		subject := strconv.FormatInt(c.SubjectID, 10)
		if s, ok := w.Subjects[c.SubjectID]; ok {
			subject = s.Name
		}
		teacher := ""
		if c.TeacherID != nil {
			teacher = strconv.FormatInt(*c.TeacherID, 10)
		}
		blocked := ""
		if l.Blocked {
			blocked = "yes"
		}

		values := []any{
			l.Date.Format("2006-01-02"),
			weekdayShort(l.Date.Weekday()),
			c.StartTime.String(),
			c.EndTime.String(),
			subject,
			c.ID,
			teacher,
			joinIDs(c.CustomerIDs),
			string(l.State),
			blocked,
			l.Notes,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return nil, fmt.Errorf("write lesson row: %w", err)
		}
		row++
	}

	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "E", "E", 20); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
