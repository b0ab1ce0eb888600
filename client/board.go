package client

import (
	"errors"
	"sort"

	"github.com/taskboard/taskboard-api/model"
	"github.com/taskboard/taskboard-api/services"
)

var (
	ErrDragInProgress = errors.New("a drag gesture is already active")
	ErrNoActiveDrag   = errors.New("no drag gesture is active")
	ErrNotOnBoard     = errors.New("todo is not on the board")
	ErrUnknownColumn  = errors.New("unknown column")
)

// Board holds the client-side optimistic view of the kanban columns: a
// per-status ordered slice of todos, kept separately from the
// authoritative server copy. A single drag gesture may be active at a
// time; hover updates rearrange the in-memory slices without any I/O,
// and Drop produces the reorder batch implied by the final layout.
type Board struct {
	columns map[model.Status][]model.Todo

	activeID     string
	pickupStatus model.Status
	pickupIndex  int
	snapshot     map[model.Status][]model.Todo
}

// NewBoard creates an empty board with all three columns present.
func NewBoard() *Board {
	b := &Board{}
	b.columns = emptyColumns()
	return b
}

func emptyColumns() map[model.Status][]model.Todo {
	cols := make(map[model.Status][]model.Todo, 3)
	for _, s := range model.Statuses() {
		cols[s] = []model.Todo{}
	}
	return cols
}

// Reconcile replaces the optimistic state from an authoritative server
// response. Todos are grouped by status and ordered by their order
// field. Any active gesture is discarded.
func (b *Board) Reconcile(todos []model.Todo) {
	cols := emptyColumns()
	for _, t := range todos {
		if _, ok := cols[t.Status]; !ok {
			continue
		}
		cols[t.Status] = append(cols[t.Status], t)
	}
	for s := range cols {
		col := cols[s]
		sort.SliceStable(col, func(i, j int) bool { return col[i].Order < col[j].Order })
	}

	b.columns = cols
	b.activeID = ""
	b.snapshot = nil
}

// ReconcileBoard replaces the optimistic state from a kanban response.
func (b *Board) ReconcileBoard(board *services.KanbanBoard) {
	cols := emptyColumns()
	for _, s := range model.Statuses() {
		col := board.Column(s)
		cols[s] = append(cols[s], col.Todos...)
	}

	b.columns = cols
	b.activeID = ""
	b.snapshot = nil
}

// Column returns a copy of the column's current ordered members.
func (b *Board) Column(status model.Status) []model.Todo {
	col := b.columns[status]
	out := make([]model.Todo, len(col))
	copy(out, col)
	return out
}

// ActiveID returns the id of the todo being dragged, or "" when idle.
func (b *Board) ActiveID() string {
	return b.activeID
}

// PickUp begins a drag gesture. It fails if another gesture is already
// active or the todo is not on the board.
func (b *Board) PickUp(id string) error {
	if b.activeID != "" {
		return ErrDragInProgress
	}

	status, index, ok := b.locate(id)
	if !ok {
		return ErrNotOnBoard
	}

	// Snapshot the layout so the gesture can be cancelled.
	b.snapshot = make(map[model.Status][]model.Todo, len(b.columns))
	for s, col := range b.columns {
		cp := make([]model.Todo, len(col))
		copy(cp, col)
		b.snapshot[s] = cp
	}

	b.activeID = id
	b.pickupStatus = status
	b.pickupIndex = index
	return nil
}

// HoverColumn previews dropping the dragged todo at the end of the
// given column (hovering the column background).
func (b *Board) HoverColumn(status model.Status) error {
	return b.HoverIndex(status, len(b.columns[status]))
}

// HoverIndex previews dropping the dragged todo at the given position
// of the given column. It rearranges the in-memory slices only; no
// server call happens until Drop.
func (b *Board) HoverIndex(status model.Status, index int) error {
	if b.activeID == "" {
		return ErrNoActiveDrag
	}
	if !status.IsValid() {
		return ErrUnknownColumn
	}

	curStatus, curIndex, ok := b.locate(b.activeID)
	if !ok {
		return ErrNotOnBoard
	}

	active := b.columns[curStatus][curIndex]

	// Remove from the current column.
	src := b.columns[curStatus]
	b.columns[curStatus] = append(src[:curIndex], src[curIndex+1:]...)

	// Insert at the hovered position of the target column.
	dst := b.columns[status]
	if index < 0 {
		index = 0
	}
	if index > len(dst) {
		index = len(dst)
	}
	dst = append(dst, model.Todo{})
	copy(dst[index+1:], dst[index:])
	dst[index] = active
	b.columns[status] = dst

	return nil
}

// Cancel aborts the active gesture and restores the pre-drag layout.
func (b *Board) Cancel() {
	if b.activeID == "" {
		return
	}
	b.columns = b.snapshot
	b.snapshot = nil
	b.activeID = ""
}

// Drop finalizes the gesture and computes the reorder batch implied by
// the final layout: a {id, status, order} triple for every item of the
// source and target columns, deduplicated keeping the last-computed
// value. Unchanged triples are included; the server treats them as
// no-ops. A gesture that moved nothing is a cancel and yields nil.
func (b *Board) Drop() ([]services.ReorderItem, error) {
	if b.activeID == "" {
		return nil, ErrNoActiveDrag
	}

	dropStatus, dropIndex, ok := b.locate(b.activeID)
	if !ok {
		return nil, ErrNotOnBoard
	}

	pickupStatus, pickupIndex := b.pickupStatus, b.pickupIndex
	b.activeID = ""
	b.snapshot = nil

	if dropStatus == pickupStatus && dropIndex == pickupIndex {
		return nil, nil
	}

	batch := make([]services.ReorderItem, 0,
		len(b.columns[pickupStatus])+len(b.columns[dropStatus]))
	position := map[string]int{}
	add := func(item services.ReorderItem) {
		if i, ok := position[item.ID]; ok {
			batch[i] = item
			return
		}
		position[item.ID] = len(batch)
		batch = append(batch, item)
	}

	for i, t := range b.columns[pickupStatus] {
		add(services.ReorderItem{ID: t.ID, Order: i + 1, Status: pickupStatus})
	}
	if dropStatus != pickupStatus {
		for i, t := range b.columns[dropStatus] {
			add(services.ReorderItem{ID: t.ID, Order: i + 1, Status: dropStatus})
		}
	}

	// Keep the optimistic slices aligned with what was just computed.
	b.renumber(pickupStatus)
	b.renumber(dropStatus)

	return batch, nil
}

func (b *Board) renumber(status model.Status) {
	col := b.columns[status]
	for i := range col {
		col[i].Order = i + 1
		col[i].Status = status
	}
}

func (b *Board) locate(id string) (model.Status, int, bool) {
	for _, s := range model.Statuses() {
		for i, t := range b.columns[s] {
			if t.ID == id {
				return s, i, true
			}
		}
	}
	return "", 0, false
}
