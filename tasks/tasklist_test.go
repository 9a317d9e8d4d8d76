package tasks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func td(tag int32, p TaskPriority) TaskDescriptor {
	return TaskDescriptor{Callable: func() {}, Type: Custom, Tag: tag, Priority: p}
}

func TestTaskListPriorityThenFIFO(t *testing.T) {
	l := newTaskList()
	l.Insert(td(1, Regular))
	l.Insert(td(2, Emergency))
	l.Insert(td(3, Regular))
	l.Insert(td(4, Background))
	l.Insert(td(5, Emergency))

	require.Equal(t, 5, l.Len())

	var order []int32
	for {
		d, ok := l.PopFront()
		if !ok {
			break
		}
		order = append(order, d.Tag)
	}
	require.Equal(t, []int32{2, 5, 1, 3, 4}, order)
	require.Equal(t, 0, l.Len())
}

func TestTaskListCursorRemoveDoesNotDisturbOthers(t *testing.T) {
	l := newTaskList()
	l.Insert(td(1, Regular))
	l.Insert(td(2, Regular))
	l.Insert(td(3, Regular))

	cur := l.Cursor()
	require.Equal(t, int32(1), cur.Task().Tag)
	removed := cur.Remove()
	require.Equal(t, int32(1), removed.Tag)
	require.Equal(t, 2, l.Len())
	require.False(t, cur.Done())
	require.Equal(t, int32(2), cur.Task().Tag)

	cur.Next()
	require.Equal(t, int32(3), cur.Task().Tag)
	cur.Next()
	require.True(t, cur.Done())
}

func TestTaskListCursorRemoveDrainsBucketThenAdvances(t *testing.T) {
	l := newTaskList()
	l.Insert(td(1, Emergency))
	l.Insert(td(2, Regular))

	cur := l.Cursor()
	require.Equal(t, int32(1), cur.Task().Tag)
	cur.Remove()
	require.False(t, cur.Done())
	require.Equal(t, int32(2), cur.Task().Tag)
	require.Equal(t, 1, l.Len())
}

func TestTaskListCursorNextSkipsWithoutRemoving(t *testing.T) {
	l := newTaskList()
	l.Insert(td(1, Emergency))
	l.Insert(td(2, Regular))

	cur := l.Cursor()
	cur.Next() // skip tag 1 without removing it
	require.Equal(t, int32(2), cur.Task().Tag)

	// the Emergency bucket still holds tag 1
	d, ok := l.PopFront()
	require.True(t, ok)
	require.Equal(t, int32(1), d.Tag)
}
