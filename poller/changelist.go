package poller

// changeList is the intrusive singly-linked list of descriptors whose
// desired mask may differ from installed. It is threaded through
// WaitSlot.next; head is a single word held by the Poller.
//
// Enqueue is O(1) at the head. There is no dequeue-by-key: cancellation
// (Rm) does not remove entries, it relies on reconcile no-op-ing when
// desired already equals installed. Batching kernel registrations this way
// avoids one syscall per Add/Rm, which matters under load — a coroutine
// that writes then reads the same socket would otherwise cost two MODIFYs
// per message instead of one.
type changeList struct {
	head int32
}

func newChangeList() changeList {
	return changeList{head: changeListEnd}
}

// enqueue links fd's slot at the head of the list, unless it is already
// linked (invariant 5: no descriptor appears twice simultaneously).
func (c *changeList) enqueue(fd int, s *WaitSlot) {
	if s.onChangeList() {
		return
	}
	s.next = c.head
	c.head = int32(fd)
}

// unlink splices s out of the list before it would otherwise be drained,
// used by Clean to forget a descriptor without waiting for the next Wait's
// reconcile pass to visit it. Singly-linked, so removal from the middle
// costs a walk from head; Clean is not a hot path, unlike enqueue.
func (c *changeList) unlink(t table, fd int, s *WaitSlot) {
	if !s.onChangeList() {
		return
	}
	if int(c.head) == fd {
		c.head = s.next
		s.next = changeListNil
		return
	}
	for cur := c.head; cur != changeListEnd; {
		prev := t.lookup(int(cur))
		if prev.next == int32(fd) {
			prev.next = s.next
			s.next = changeListNil
			return
		}
		cur = prev.next
	}
	s.next = changeListNil
}

// drain walks the list from head to END, unlinking each slot as it is
// visited (next set back to changeListNil) and invoking visit with its fd
// and slot. The list is empty again once drain returns.
func (c *changeList) drain(t table, visit func(fd int, s *WaitSlot)) {
	fd := c.head
	c.head = changeListEnd
	for fd != changeListEnd {
		s := t.lookup(int(fd))
		next := s.next
		s.next = changeListNil
		visit(int(fd), s)
		fd = next
	}
}
