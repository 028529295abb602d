package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRowPadsShortRows(t *testing.T) {
	tbl := NewTable("a", "b", "c")
	require.NoError(t, tbl.AppendRow(Number(1)))

	assert.Equal(t, 1, tbl.NumRows())
	assert.True(t, tbl.Rows[0][2].IsMissing())

	err := tbl.AppendRow(Number(1), Number(2), Number(3), Number(4))
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestDropDuplicateRows(t *testing.T) {
	tbl := NewTable("id", "city")
	require.NoError(t, tbl.AppendRow(Number(1), Text("Haifa")))
	require.NoError(t, tbl.AppendRow(Number(2), Missing()))
	require.NoError(t, tbl.AppendRow(Number(1), Text("Haifa")))
	require.NoError(t, tbl.AppendRow(Number(2), Missing()))
	require.NoError(t, tbl.AppendRow(Number(1), Text("Tel Aviv")))

	out := tbl.DropDuplicateRows()

	require.Equal(t, 3, out.NumRows())
	assert.Equal(t, "Haifa", out.Rows[0][1].String())
	assert.True(t, out.Rows[1][1].IsMissing())
	assert.Equal(t, "Tel Aviv", out.Rows[2][1].String())
	assert.Equal(t, 5, tbl.NumRows(), "input is not modified")
}

func TestDropDuplicateRowsKeepsVariantDistinct(t *testing.T) {
	tbl := NewTable("v")
	require.NoError(t, tbl.AppendRow(Number(500)))
	require.NoError(t, tbl.AppendRow(Text("500")))

	assert.Equal(t, 2, tbl.DropDuplicateRows().NumRows())
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tbl := NewTable("a", "b")
		require.NoError(t, tbl.AppendRow(Number(1), Number(2)))
		assert.NoError(t, tbl.Validate())
	})

	t.Run("duplicate names", func(t *testing.T) {
		assert.ErrorIs(t, NewTable("a", "a").Validate(), ErrDuplicateColumn)
	})

	t.Run("empty name", func(t *testing.T) {
		assert.ErrorIs(t, NewTable("a", "").Validate(), ErrInvalidTable)
	})

	t.Run("ragged row", func(t *testing.T) {
		tbl := NewTable("a", "b")
		tbl.Rows = append(tbl.Rows, []Cell{Number(1)})
		assert.ErrorIs(t, tbl.Validate(), ErrInvalidTable)
	})
}

func TestCloneIsDeep(t *testing.T) {
	tbl := NewTable("a")
	require.NoError(t, tbl.AppendRow(Number(1)))

	c := tbl.Clone()
	c.Rows[0][0] = Text("changed")
	c.Columns[0] = "b"

	assert.Equal(t, "1", tbl.Rows[0][0].String())
	assert.Equal(t, "a", tbl.Columns[0])
}
