package candidates

import (
	"context"
	"fmt"
	"strings"
)

// Format names an import input format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatText  Format = "text"
	FormatJSONL Format = "jsonl"
	FormatATS   Format = "ats"
)

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatText, FormatJSONL, FormatATS:
		return f, nil
	}
	return "", fmt.Errorf("unknown import format %q (want csv, text, jsonl or ats)", s)
}

// Importer turns raw import input into a candidate [List].
type Importer struct {
	ATS    ATSSource
	Parser *FeedParser
}

// NewImporter creates an Importer that fetches ATS data from ats.
func NewImporter(ats ATSSource) *Importer {
	return &Importer{ATS: ats, Parser: NewFeedParser()}
}

// Import parses data in the given format. For [FormatATS] data is ignored and
// the candidates are fetched from provider.
func (i *Importer) Import(ctx context.Context, format Format, data, provider string) (List, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(strings.NewReader(data))
	case FormatText:
		return ParsePasted(data)
	case FormatJSONL:
		list := i.Parser.ParseAll(strings.NewReader(data))
		if len(list) == 0 {
			return nil, ErrNoCandidates
		}
		return list, nil
	case FormatATS:
		if i.ATS == nil {
			return nil, fmt.Errorf("%w: no ATS configured", ErrUnknownProvider)
		}
		list, err := i.ATS.Fetch(ctx, provider)
		if err != nil {
			return nil, fmt.Errorf("ATS import from %s: %w", provider, err)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unknown import format %q", format)
}
