package alertlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const TimeLayout = "2006-01-02 15:04:05"

var Header = []string{"Timestamp", "Image", "Location"}

type Record struct {
	Timestamp string
	Image     string
	Location  string
}

func NewRecord(at time.Time, image, location string) Record {
	return Record{
		Timestamp: at.Format(TimeLayout),
		Image:     image,
		Location:  location,
	}
}

// Log is an append-only CSV file. Appends are serialised within the process
// by mu and across processes by a lock file next to the log.
type Log struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func New(path string) *Log {
	return &Log{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (l *Log) Path() string { return l.path }

func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("lock alert log: %w", err)
	}
	defer l.lock.Unlock()

	return l.write(rec)
}

// AppendNow stamps the record with now() while holding the log locks, so
// timestamps never go backwards in file order.
func (l *Log) AppendNow(image, location string, now func() time.Time) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.lock.Lock(); err != nil {
		return NewRecord(now(), image, location), fmt.Errorf("lock alert log: %w", err)
	}
	defer l.lock.Unlock()

	rec := NewRecord(now(), image, location)
	return rec, l.write(rec)
}

func (l *Log) write(rec Record) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open alert log: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat alert log: %w", err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write([]string{rec.Timestamp, rec.Image, rec.Location}); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush alert log: %w", err)
	}

	return f.Sync()
}

// ReadAll returns the records in file order, or none if the log does not exist yet.
func (l *Log) ReadAll() ([]Record, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open alert log: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	out := []Record{}
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read alert log: %w", err)
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == Header[0] {
				continue
			}
		}

		var rec Record
		switch {
		case len(row) >= 3:
			rec = Record{row[0], row[1], row[2]}
		case len(row) == 2:
			rec = Record{Timestamp: row[0], Image: row[1]}
		case len(row) == 1:
			rec = Record{Timestamp: row[0]}
		}
		out = append(out, rec)
	}

	return out, nil
}

// Raw returns the file contents as stored, or "" if there is no log yet.
func (l *Log) Raw() (string, error) {
	b, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read alert log: %w", err)
	}
	return string(b), nil
}
