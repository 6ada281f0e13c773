package editor

// Move returns a copy of s with the element at from removed and reinserted at to.
// Elements between the two positions shift by one; length and contents are preserved.
func Move[E any](s []E, from, to int) ([]E, error) {
	if from < 0 || from >= len(s) {
		return nil, &IndexError{Index: from, Length: len(s)}
	}
	if to < 0 || to >= len(s) {
		return nil, &IndexError{Index: to, Length: len(s)}
	}
	out := make([]E, 0, len(s))
	moved := s[from]
	for i, e := range s {
		if i == from {
			continue
		}
		if len(out) == to {
			out = append(out, moved)
		}
		out = append(out, e)
	}
	if len(out) < len(s) {
		out = append(out, moved)
	}
	return out, nil
}
