package alert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shealert/internal/alertlog"
	"shealert/internal/contacts"
	"shealert/internal/location"
	"shealert/internal/notify"
)

type fakeCamera struct {
	err error
}

func (c fakeCamera) Capture(_ context.Context, name string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return "images/" + name, nil
}

type fixedLocator location.Fix

func (l fixedLocator) Resolve(context.Context) location.Fix { return location.Fix(l) }

type spyOpener struct {
	mu    sync.Mutex
	links []string
}

func (s *spyOpener) open(link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, link)
	return nil
}

var mumbai = location.Fix{Latitude: 19.07, Longitude: 72.87, Address: "Mumbai, MH, India", City: "Mumbai"}

type fixture struct {
	trigger *Trigger
	log     *alertlog.Log
	opener  *spyOpener
}

func newFixture(t *testing.T, cam Camera, contactsCSV string) fixture {
	t.Helper()
	dir := t.TempDir()

	contactsPath := filepath.Join(dir, "contacts.csv")
	if contactsCSV != "" {
		require.NoError(t, os.WriteFile(contactsPath, []byte(contactsCSV), 0o644))
	}

	l := alertlog.New(filepath.Join(dir, "alert_log.csv"))
	op := &spyOpener{}
	tr := NewTrigger(Deps{
		Camera:     cam,
		Locator:    fixedLocator(mumbai),
		Log:        l,
		Directory:  contacts.NewDirectory(contactsPath),
		Dispatcher: notify.NewDispatcher("", op.open),
		Now:        func() time.Time { return time.Date(2026, 10, 19, 22, 15, 3, 0, time.Local) },
	})
	return fixture{trigger: tr, log: l, opener: op}
}

func TestMessage(t *testing.T) {
	want := "🚨 EMERGENCY ALERT!\n" +
		"Time: 2026-10-19 22:15:03\n" +
		"Location: Mumbai, MH, India\n" +
		"https://www.google.com/maps?q=19.07,72.87\n" +
		"Please help me immediately!"
	assert.Equal(t, want, Message("2026-10-19 22:15:03", mumbai))
}

func TestTrigger_Fire(t *testing.T) {
	f := newFixture(t, fakeCamera{}, "phone\n9990001111\nabc123\n9990002222\n")

	out := f.trigger.Fire(context.Background())

	assert.Equal(t, "2026-10-19 22:15:03", out.Timestamp)
	assert.True(t, out.Captured)
	assert.Contains(t, out.Image, "alert-20261019-221503-")
	assert.Equal(t, "Mumbai, MH, India", out.Address)
	assert.Equal(t, 2, out.Notified)

	require.Len(t, f.opener.links, 2)
	assert.Contains(t, f.opener.links[0], "phone=9990001111&")
	assert.Contains(t, f.opener.links[1], "phone=9990002222&")
	for _, l := range f.opener.links {
		assert.NotContains(t, l, "abc123")
	}

	recs, err := f.log.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, alertlog.Record{Timestamp: out.Timestamp, Image: out.Image, Location: out.Address}, recs[0])
}

func TestTrigger_FireWithoutCamera(t *testing.T) {
	f := newFixture(t, fakeCamera{err: errors.New("device unavailable")}, "phone\n9990001111\n")

	out := f.trigger.Fire(context.Background())

	assert.False(t, out.Captured)
	assert.Empty(t, out.Image)
	assert.Equal(t, 1, out.Notified)

	recs, err := f.log.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Image)
}

func TestTrigger_FireWithoutContactsStillLogs(t *testing.T) {
	f := newFixture(t, nil, "")

	out := f.trigger.Fire(context.Background())
	assert.Equal(t, 0, out.Notified)
	assert.Empty(t, f.opener.links)

	recs, err := f.log.ReadAll()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestTrigger_EachFireAddsOneRecord(t *testing.T) {
	f := newFixture(t, fakeCamera{}, "")

	for i := 1; i <= 3; i++ {
		f.trigger.Fire(context.Background())
		recs, err := f.log.ReadAll()
		require.NoError(t, err)
		assert.Len(t, recs, i)
	}
}

func TestTrigger_ConcurrentFires(t *testing.T) {
	f := newFixture(t, fakeCamera{}, "phone\n1\n")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.trigger.Fire(context.Background())
		}()
	}
	wg.Wait()

	recs, err := f.log.ReadAll()
	require.NoError(t, err)
	assert.Len(t, recs, 8)
	assert.Len(t, f.opener.links, 8)
}

// slowFirstCamera stalls the first capture until the second alert has been logged.
type slowFirstCamera struct {
	calls   atomic.Int32
	started chan struct{}
	delay   time.Duration
}

func (c *slowFirstCamera) Capture(_ context.Context, name string) (string, error) {
	if c.calls.Add(1) == 1 {
		close(c.started)
		time.Sleep(c.delay)
	}
	return "images/" + name, nil
}

func TestTrigger_TimestampsFollowLogOrder(t *testing.T) {
	f := newFixture(t, nil, "")

	var (
		mu   sync.Mutex
		tick int
	)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	f.trigger.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	cam := &slowFirstCamera{started: make(chan struct{}), delay: 300 * time.Millisecond}
	f.trigger.Camera = cam

	var wg sync.WaitGroup
	outs := make([]Outcome, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outs[0] = f.trigger.Fire(context.Background())
	}()
	<-cam.started
	outs[1] = f.trigger.Fire(context.Background())
	wg.Wait()

	recs, err := f.log.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.LessOrEqual(t, recs[0].Timestamp, recs[1].Timestamp)
	assert.Equal(t, outs[1].Timestamp, recs[0].Timestamp)
	assert.Equal(t, outs[0].Timestamp, recs[1].Timestamp)
}

func TestTrigger_OnFired(t *testing.T) {
	f := newFixture(t, nil, "")

	var seen []Outcome
	f.trigger.OnFired(func(o Outcome) { seen = append(seen, o) })

	out := f.trigger.Fire(context.Background())
	require.Len(t, seen, 1)
	assert.Equal(t, out, seen[0])
}
