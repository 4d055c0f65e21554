package location

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingResolver struct {
	calls atomic.Int32
	fix   Fix
}

func (r *countingResolver) Resolve(context.Context) Fix {
	r.calls.Add(1)
	return r.fix
}

func TestCached_Current(t *testing.T) {
	src := &countingResolver{fix: Fix{Latitude: 1, Longitude: 2, Address: "A", City: "Pune"}}
	c := NewCached(src, time.Minute)

	assert.Equal(t, src.fix, c.Current(context.Background()))
	assert.Equal(t, src.fix, c.Current(context.Background()))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCached_Refresh(t *testing.T) {
	src := &countingResolver{fix: Fix{City: "Pune"}}
	c := NewCached(src, time.Minute)

	c.Current(context.Background())
	c.Refresh()
	c.Current(context.Background())

	assert.Equal(t, int32(2), src.calls.Load())
}
