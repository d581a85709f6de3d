package candidates

import (
	"bufio"
	"encoding/json"
	"io"
)

// feedRecord is one line of an ATS JSON-lines export.
type feedRecord struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	JobTitle  string `json:"job_title"`
}

func (f feedRecord) toRecord() Record {
	name := f.Name
	if name == "" {
		name = f.FirstName
		if f.LastName != "" {
			if name != "" {
				name += " "
			}
			name += f.LastName
		}
	}
	r := NewRecord(f.Email, name, f.Phone)
	r.JobTitle = f.JobTitle
	r.ATSID = f.ID
	return r
}

// FeedParser parses ATS exports in JSON-lines format, one candidate object per
// line.
//
// The channel returned by Parse is closed when the reader is exhausted or a
// line exceeds BufferSize. Blank and malformed lines are skipped so a partially
// corrupted export still yields its good rows.
type FeedParser struct {
	// BufferSize is the maximum size in bytes of a single line.
	// Defaults to 1MB if not set or <= 0.
	BufferSize int
}

// NewFeedParser creates a [FeedParser] with default settings.
func NewFeedParser() *FeedParser {
	return &FeedParser{BufferSize: 1024 * 1024}
}

// Parse reads JSON lines from reader and emits one [Record] per parsed line.
func (p *FeedParser) Parse(reader io.Reader) <-chan Record {
	records := make(chan Record)

	go func() {
		defer close(records)

		scanner := bufio.NewScanner(reader)
		bufSize := p.BufferSize
		if bufSize <= 0 {
			bufSize = 1024 * 1024
		}
		scanner.Buffer(make([]byte, 0, 64*1024), bufSize)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var rec feedRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				continue
			}
			records <- rec.toRecord()
		}
	}()

	return records
}

// ParseAll drains Parse into a [List].
func (p *FeedParser) ParseAll(reader io.Reader) List {
	var list List
	for rec := range p.Parse(reader) {
		list = append(list, rec)
	}
	return list
}

// ParseFeedLine parses a single JSON line. Unlike [FeedParser.Parse] it
// reports malformed input instead of skipping it.
func ParseFeedLine(line string) (Record, error) {
	var rec feedRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Record{}, err
	}
	return rec.toRecord(), nil
}
