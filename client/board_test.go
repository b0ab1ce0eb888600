package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/taskboard-api/model"
	"github.com/taskboard/taskboard-api/services"
)

func testTodo(id string, status model.Status, order int) model.Todo {
	return model.Todo{ID: id, Title: id, Status: status, Order: order}
}

func seededBoard() *Board {
	b := NewBoard()
	b.Reconcile([]model.Todo{
		testTodo("t1", model.StatusTodo, 1),
		testTodo("t2", model.StatusTodo, 2),
		testTodo("t3", model.StatusTodo, 3),
		testTodo("p1", model.StatusInProgress, 1),
		testTodo("d1", model.StatusDone, 1),
	})
	return b
}

func columnIDs(b *Board, status model.Status) []string {
	col := b.Column(status)
	ids := make([]string, len(col))
	for i, t := range col {
		ids[i] = t.ID
	}
	return ids
}

func TestReconcileGroupsAndSortsByOrder(t *testing.T) {
	b := NewBoard()
	b.Reconcile([]model.Todo{
		testTodo("t2", model.StatusTodo, 9),
		testTodo("t1", model.StatusTodo, 4),
		testTodo("d1", model.StatusDone, 1),
	})

	assert.Equal(t, []string{"t1", "t2"}, columnIDs(b, model.StatusTodo))
	assert.Equal(t, []string{"d1"}, columnIDs(b, model.StatusDone))
	assert.Empty(t, columnIDs(b, model.StatusInProgress))
}

func TestPickUpUnknownTodo(t *testing.T) {
	b := seededBoard()
	assert.ErrorIs(t, b.PickUp("nope"), ErrNotOnBoard)
}

func TestPickUpWhileDragging(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t1"))
	assert.ErrorIs(t, b.PickUp("t2"), ErrDragInProgress)
}

func TestHoverRequiresActiveDrag(t *testing.T) {
	b := seededBoard()
	assert.ErrorIs(t, b.HoverColumn(model.StatusDone), ErrNoActiveDrag)
	assert.ErrorIs(t, b.HoverIndex(model.StatusDone, 0), ErrNoActiveDrag)
}

func TestHoverMovesWithoutCommitting(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t1"))
	require.NoError(t, b.HoverColumn(model.StatusInProgress))

	assert.Equal(t, []string{"t2", "t3"}, columnIDs(b, model.StatusTodo))
	assert.Equal(t, []string{"p1", "t1"}, columnIDs(b, model.StatusInProgress))
	assert.Equal(t, "t1", b.ActiveID())
}

func TestHoverIndexClampsOutOfRange(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t1"))

	require.NoError(t, b.HoverIndex(model.StatusInProgress, 99))
	assert.Equal(t, []string{"p1", "t1"}, columnIDs(b, model.StatusInProgress))

	require.NoError(t, b.HoverIndex(model.StatusInProgress, -5))
	assert.Equal(t, []string{"t1", "p1"}, columnIDs(b, model.StatusInProgress))
}

func TestHoverUnknownColumn(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t1"))
	assert.ErrorIs(t, b.HoverColumn(model.Status("archived")), ErrUnknownColumn)
}

func TestCancelRestoresLayout(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t1"))
	require.NoError(t, b.HoverColumn(model.StatusDone))
	require.NoError(t, b.HoverIndex(model.StatusInProgress, 0))

	b.Cancel()

	assert.Empty(t, b.ActiveID())
	assert.Equal(t, []string{"t1", "t2", "t3"}, columnIDs(b, model.StatusTodo))
	assert.Equal(t, []string{"p1"}, columnIDs(b, model.StatusInProgress))
	assert.Equal(t, []string{"d1"}, columnIDs(b, model.StatusDone))
}

func TestDropWithoutDrag(t *testing.T) {
	b := seededBoard()
	_, err := b.Drop()
	assert.ErrorIs(t, err, ErrNoActiveDrag)
}

func TestDropWithoutMovingIsANoop(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t2"))

	batch, err := b.Drop()
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.Empty(t, b.ActiveID())
}

func TestDropHoverAwayAndBackIsANoop(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t2"))
	require.NoError(t, b.HoverColumn(model.StatusDone))
	require.NoError(t, b.HoverIndex(model.StatusTodo, 1))

	batch, err := b.Drop()
	require.NoError(t, err)
	assert.Nil(t, batch)
}

func TestDropWithinColumnRenumbersWholeColumn(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t3"))
	require.NoError(t, b.HoverIndex(model.StatusTodo, 0))

	batch, err := b.Drop()
	require.NoError(t, err)

	assert.ElementsMatch(t, []services.ReorderItem{
		{ID: "t3", Order: 1, Status: model.StatusTodo},
		{ID: "t1", Order: 2, Status: model.StatusTodo},
		{ID: "t2", Order: 3, Status: model.StatusTodo},
	}, batch)
}

func TestDropAcrossColumnsCoversBothColumns(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t1"))
	require.NoError(t, b.HoverIndex(model.StatusInProgress, 0))

	batch, err := b.Drop()
	require.NoError(t, err)

	assert.ElementsMatch(t, []services.ReorderItem{
		{ID: "t2", Order: 1, Status: model.StatusTodo},
		{ID: "t3", Order: 2, Status: model.StatusTodo},
		{ID: "t1", Order: 1, Status: model.StatusInProgress},
		{ID: "p1", Order: 2, Status: model.StatusInProgress},
	}, batch)
}

func TestDropKeepsOptimisticStateAligned(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t1"))
	require.NoError(t, b.HoverColumn(model.StatusDone))

	_, err := b.Drop()
	require.NoError(t, err)

	done := b.Column(model.StatusDone)
	require.Len(t, done, 2)
	assert.Equal(t, "d1", done[0].ID)
	assert.Equal(t, 1, done[0].Order)
	assert.Equal(t, "t1", done[1].ID)
	assert.Equal(t, 2, done[1].Order)
	assert.Equal(t, model.StatusDone, done[1].Status)

	// A new gesture can start right away.
	require.NoError(t, b.PickUp("t2"))
	b.Cancel()
}

func TestReconcileDiscardsActiveGesture(t *testing.T) {
	b := seededBoard()
	require.NoError(t, b.PickUp("t1"))

	b.Reconcile([]model.Todo{testTodo("x1", model.StatusTodo, 1)})

	assert.Empty(t, b.ActiveID())
	assert.Equal(t, []string{"x1"}, columnIDs(b, model.StatusTodo))
}

func TestReconcileBoardUsesServerGrouping(t *testing.T) {
	board := services.NewKanbanBoard()
	board.Todo.Todos = []model.Todo{testTodo("t1", model.StatusTodo, 1)}
	board.Todo.Count = 1
	board.Done.Todos = []model.Todo{testTodo("d1", model.StatusDone, 1)}
	board.Done.Count = 1

	b := NewBoard()
	b.ReconcileBoard(board)

	assert.Equal(t, []string{"t1"}, columnIDs(b, model.StatusTodo))
	assert.Equal(t, []string{"d1"}, columnIDs(b, model.StatusDone))
	assert.Empty(t, columnIDs(b, model.StatusInProgress))
}
