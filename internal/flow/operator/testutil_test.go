package operator

type memState struct {
	m map[string][]byte
}

func newMemState() *memState { return &memState{m: make(map[string][]byte)} }

func (s *memState) Get(key []byte) ([]byte, bool) {
	v, ok := s.m[string(key)]
	return v, ok
}
func (s *memState) Set(key, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.m[string(key)] = cp
}
func (s *memState) Remove(key []byte) { delete(s.m, string(key)) }
