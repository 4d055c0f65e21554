package contacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type Contact struct {
	Phone string
}

type Directory struct {
	path string
}

func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

// Valid reports whether s is a non-empty run of ASCII digits.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// List returns the contacts in file order. The first row is a header.
// A missing file is an empty directory; malformed rows are skipped.
func (d *Directory) List() ([]Contact, error) {
	f, err := os.Open(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Contact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open contacts: %w", err)
	}
	defer f.Close()

	return Read(f)
}

func Read(r io.Reader) ([]Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	out := []Contact{}
	header := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		// the first record is the header even when it does not parse
		if header {
			header = false
			if err == nil {
				continue
			}
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("read contacts: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		phone := strings.TrimSpace(row[0])
		if !Valid(phone) {
			continue
		}
		out = append(out, Contact{Phone: phone})
	}

	return out, nil
}
