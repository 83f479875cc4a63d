package render

import (
	"bytes"
	"testing"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWeekSheet_Render(t *testing.T) {
	view := sampleView()
	view.Contracts[0].Contract.CustomerIDs = []int64{500, 501}

	data, err := WeekSheet{
		View:     view,
		Subjects: map[int64]model.Subject{1: {ID: 1, Name: "Mathematics"}},
	}.Render()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	// заголовок + два занятия, занятие без контракта пропущено
	require.Len(t, rows, 3)
	assert.Equal(t, sheetHeaders, rows[0])

	math := rows[1]
	require.GreaterOrEqual(t, len(math), 11)
	assert.Equal(t, "2024-01-15", math[0])
	assert.Equal(t, "Пн", math[1])
	assert.Equal(t, "10:00", math[2])
	assert.Equal(t, "11:30", math[3])
	assert.Equal(t, "Mathematics", math[4])
	assert.Equal(t, "1", math[5])
	assert.Equal(t, "10", math[6])
	assert.Equal(t, "500,501", math[7])
	assert.Equal(t, "held", math[8])
	assert.Equal(t, "", math[9])
	assert.Equal(t, "chapter 4", math[10])

	physics := rows[2]
	require.GreaterOrEqual(t, len(physics), 10)
	assert.Equal(t, "2024-01-17", physics[0])
	assert.Equal(t, "2", physics[4], "subject id when the catalog has no entry")
	assert.Equal(t, "", physics[6], "unassigned contract")
	assert.Equal(t, "idle", physics[8])
	assert.Equal(t, "yes", physics[9])
}

func TestWeekSheet_NilView(t *testing.T) {
	_, err := WeekSheet{}.Render()
	assert.Error(t, err)
}

func TestJoinIDs(t *testing.T) {
	assert.Equal(t, "", joinIDs(nil))
	assert.Equal(t, "7", joinIDs([]int64{7}))
	assert.Equal(t, "1,2,3", joinIDs([]int64{1, 2, 3}))
}
