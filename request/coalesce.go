package request

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Coalescer deduplicates concurrent, identical idempotent requests (GET and
// HEAD) issued through the same Client, so that a burst of callers asking
// for the same resource at the same time produces one transport call
// instead of one per caller. Disabled for any other method, since
// deduplicating a write would silently drop side effects for every caller
// but one.
type Coalescer struct {
	group singleflight.Group
}

// NewCoalescer returns an empty Coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{}
}

// Do executes fn, sharing its result among all concurrent Do calls with the
// same key. shared reports whether this caller received a result computed
// by a different, concurrent caller rather than one it triggered itself.
func (c *Coalescer) Do(_ context.Context, key string, fn func() (*Response, error)) (resp *Response, shared bool, err error) {
	executed := false
	v, sharedResult, err := c.group.Do(key, func() (interface{}, error) {
		executed = true
		return fn()
	})
	shared = sharedResult && !executed
	if err != nil {
		return nil, shared, err
	}
	return v.(*Response), shared, nil
}

// Coalescable reports whether req's method is safe to deduplicate.
func Coalescable(req *Request) bool {
	switch req.Method() {
	case "GET", "HEAD":
		return true
	default:
		return false
	}
}

// GenerateCoalesceKey derives a stable dedup key from method, URL (with
// path parameters resolved), and a hash of the sorted query parameters and
// body, so two requests that are byte-for-byte equivalent but constructed
// independently still collapse onto the same key.
func GenerateCoalesceKey(req *Request) (string, error) {
	u, err := buildURL(req.WithQuery())
	if err != nil {
		return "", err
	}

	params := append([]QueryParam{}, req.QueryParams()...)
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })

	var sb strings.Builder
	sb.WriteString(req.Method())
	sb.WriteByte('|')
	sb.WriteString(u)
	sb.WriteByte('|')
	for _, p := range params {
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(p.Value)
		sb.WriteByte('&')
	}

	if b := req.Body(); b != nil {
		bodyHash, err := hashBody(b)
		if err != nil {
			return "", err
		}
		sb.WriteByte('|')
		sb.WriteString(bodyHash)
	}

	return hashString(sb.String()), nil
}

func hashBody(b Body) (string, error) {
	r, err := b.Reader()
	if err != nil {
		return "", err
	}
	defer r.Close()

	h := sha256.New()
	buf := make([]byte, 32*1024)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if rerr != nil {
			break
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
