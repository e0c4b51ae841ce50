package cache

// lruNode is a node in a doubly-linked LRU list.
type lruNode struct {
	entry *Entry
	prev  *lruNode
	next  *lruNode
}

// lruList holds unlocked attached entries.
// The head is the most recently unlocked, tail is the eviction candidate.
type lruList struct {
	head *lruNode
	tail *lruNode
	len  int
}

// Len returns the number of nodes in the list.
func (l *lruList) Len() int {
	return l.len
}

// PushFront adds the entry at the front and records its node.
func (l *lruList) PushFront(e *Entry) {
	node := &lruNode{entry: e}
	if l.head == nil {
		l.head = node
		l.tail = node
	} else {
		node.next = l.head
		l.head.prev = node
		l.head = node
	}
	l.len++
	e.node = node
}

// Remove unlinks the entry if it is in the list.
func (l *lruList) Remove(e *Entry) {
	node := e.node
	if node == nil {
		return
	}
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	e.node = nil
	l.len--
}

// Oldest returns the least recently unlocked entry, or nil.
func (l *lruList) Oldest() *Entry {
	if l.tail == nil {
		return nil
	}
	return l.tail.entry
}

// Clear removes all nodes from the list.
func (l *lruList) Clear() {
	for n := l.head; n != nil; n = n.next {
		n.entry.node = nil
	}
	l.head = nil
	l.tail = nil
	l.len = 0
}
