package tinylfu

// list is a doubly linked list of keys. It is modelled on container/list but
// typed, and lets an element move between lists without reallocation, which
// is how entries travel between the TinyLFU segments. Unlike container/list
// it must be initialized prior to use.
type list[K comparable] struct {
	// The list is a ring: root is both the next element of Back() and the
	// previous element of Front().
	root element[K]

	// Current list length excluding the root.
	len int
}

// newList returns an initialized list.
func newList[K comparable]() *list[K] { return new(list[K]).Init() }

// Init initializes or clears the list.
func (l *list[K]) Init() *list[K] {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	return l
}

// Len returns the number of elements in the list.
func (l *list[K]) Len() int { return l.len }

// Front returns the first element of the list or nil if the list is empty.
func (l *list[K]) Front() *element[K] {
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the last element of the list or nil if the list is empty.
func (l *list[K]) Back() *element[K] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

// PushFront inserts e at the front, detaching it from its current list first.
func (l *list[K]) PushFront(e *element[K]) {
	l.insertAfter(e, &l.root)
}

// PushBack inserts e at the back, detaching it from its current list first.
func (l *list[K]) PushBack(e *element[K]) {
	l.insertAfter(e, l.root.prev)
}

func (l *list[K]) insertAfter(e, at *element[K]) {
	if e.list != nil {
		if at == e {
			return
		}
		e.Remove()
	}
	e.prev = at
	e.next = at.next
	at.next = e
	e.next.prev = e
	e.list = l
	l.len++
}

// element is a node within a linked list.
type element[K comparable] struct {
	next, prev *element[K]
	list       *list[K]

	Value K
}

// Next returns the next list element or nil.
func (e *element[K]) Next() *element[K] {
	if p := e.next; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// Prev returns the previous list element or nil.
func (e *element[K]) Prev() *element[K] {
	if p := e.prev; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// List returns the list containing the element or nil.
func (e *element[K]) List() *list[K] {
	return e.list
}

// Remove removes an element from its list. It is a no-op for detached
// elements.
func (e *element[K]) Remove() {
	if e.list == nil {
		return
	}

	e.list.len--
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
}

// MoveToFront moves an element to the front of its list. The element must
// be in a list.
func (e *element[K]) MoveToFront() {
	root := &e.list.root
	if root.next == e {
		return
	}

	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = root
	e.next = root.next
	root.next.prev = e
	root.next = e
}
