package request

import "strconv"

// Priority is an opaque ordering hint attached to a request. Lower values
// mean higher priority. The pipeline never interprets the value itself; it
// only propagates it (X-Request-Priority header) so that servers and
// intermediaries can make their own scheduling decisions under load.
type Priority int

// PriorityNormal is the default priority used when a caller does not set
// one explicitly.
const PriorityNormal Priority = 0

// Higher reports whether p represents strictly higher priority than other
// (i.e. a smaller value).
func (p Priority) Higher(other Priority) bool {
	return p < other
}

// String renders the priority as its wire form.
func (p Priority) String() string {
	return strconv.Itoa(int(p))
}

// ParsePriority parses a wire-form priority value, as received on the
// X-Request-Priority header. An empty string yields PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return PriorityNormal, err
	}
	return Priority(v), nil
}
