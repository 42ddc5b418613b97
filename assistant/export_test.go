package assistant

// RetainedChildren returns the number of child handles s still holds,
// including handles of children destroyed on their own.
func RetainedChildren(s *Scope) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.children)
}
