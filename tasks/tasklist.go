package tasks

import "container/list"

// taskList is a priority-bucketed FIFO: iteration order is ascending
// priority key, then within-bucket insertion order. It backs both the
// dispatcher's shared queue and each worker's private inbox.
//
// Buckets are doubly linked lists (container/list), not a slice or ring
// buffer, specifically so that erasing an arbitrary element is O(1) and
// does not invalidate any other live element's position — a ring buffer
// cannot satisfy that.
type taskList struct {
	buckets map[TaskPriority]*list.List
	keys    []TaskPriority // kept sorted ascending
	size    int
}

func newTaskList() *taskList {
	return &taskList{buckets: make(map[TaskPriority]*list.List)}
}

// Len reports the total number of queued descriptors across all buckets.
func (l *taskList) Len() int { return l.size }

// Insert appends td to the back of its priority bucket, creating the
// bucket (and keeping the sorted key slice in order) if necessary.
func (l *taskList) Insert(td TaskDescriptor) {
	b, ok := l.buckets[td.Priority]
	if !ok {
		b = list.New()
		l.buckets[td.Priority] = b
		l.insertKey(td.Priority)
	}
	b.PushBack(td)
	l.size++
}

func (l *taskList) insertKey(p TaskPriority) {
	i := 0
	for i < len(l.keys) && l.keys[i] < p {
		i++
	}
	l.keys = append(l.keys, 0)
	copy(l.keys[i+1:], l.keys[i:])
	l.keys[i] = p
}

func (l *taskList) removeKey(p TaskPriority) {
	for i, k := range l.keys {
		if k == p {
			l.keys = append(l.keys[:i], l.keys[i+1:]...)
			return
		}
	}
}

// PopFront removes and returns the oldest descriptor in the
// lowest-numbered non-empty priority bucket.
func (l *taskList) PopFront() (TaskDescriptor, bool) {
	for _, p := range l.keys {
		b := l.buckets[p]
		if e := b.Front(); e != nil {
			td := e.Value.(TaskDescriptor)
			b.Remove(e)
			l.size--
			if b.Len() == 0 {
				delete(l.buckets, p)
				l.removeKey(p)
			}
			return td, true
		}
	}
	return TaskDescriptor{}, false
}

// taskCursor walks every bucket in priority-then-FIFO order, supporting
// O(1) removal of the element currently visited without disturbing any
// other element's position — erasing the current element advances to the
// next one (possibly in the next bucket, possibly the end).
type taskCursor struct {
	l        *taskList
	keyIdx   int
	elem     *list.Element
}

// Cursor returns a fresh cursor positioned at the first element (already
// Done if the list is empty).
func (l *taskList) Cursor() *taskCursor {
	c := &taskCursor{l: l, keyIdx: -1}
	c.advanceBucket()
	return c
}

func (c *taskCursor) advanceBucket() {
	for c.keyIdx+1 < len(c.l.keys) {
		c.keyIdx++
		b := c.l.buckets[c.l.keys[c.keyIdx]]
		if b != nil && b.Front() != nil {
			c.elem = b.Front()
			return
		}
	}
	c.elem = nil
}

// Done reports whether the cursor has walked off the end of the list.
func (c *taskCursor) Done() bool { return c.elem == nil }

// Task returns the descriptor currently under the cursor. Only valid when
// !Done().
func (c *taskCursor) Task() TaskDescriptor {
	return c.elem.Value.(TaskDescriptor)
}

// Next advances the cursor without removing the current element.
func (c *taskCursor) Next() {
	if c.elem == nil {
		return
	}
	next := c.elem.Next()
	if next != nil {
		c.elem = next
		return
	}
	c.advanceBucket()
}

// Remove erases the element currently under the cursor and advances to
// the next one, which is exactly what PopFront on the current bucket would
// have produced had the cursor been scanning from the front.
func (c *taskCursor) Remove() TaskDescriptor {
	p := c.l.keys[c.keyIdx]
	b := c.l.buckets[p]
	td := c.elem.Value.(TaskDescriptor)
	next := c.elem.Next()
	b.Remove(c.elem)
	c.l.size--
	if b.Len() == 0 {
		delete(c.l.buckets, p)
		c.l.removeKey(p)
		// removeKey shifts keys; keyIdx now points at whatever used to
		// be the next key, so re-walk from the current position rather
		// than trust keyIdx directly.
		c.keyIdx--
		c.advanceBucket()
		return td
	}
	if next != nil {
		c.elem = next
	} else {
		c.advanceBucket()
	}
	return td
}
