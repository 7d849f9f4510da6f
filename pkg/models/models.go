package models

import (
	"fmt"
	"strconv"
	"strings"
)

// CSVHeader is the fixed first line of every export
const CSVHeader = "Title,Year,Directors,Rating10"

// Record represents one rated movie scraped from a ratings page
type Record struct {
	Title     string   `json:"title"`
	Year      string   `json:"year"`
	Directors []string `json:"directors"`
	Rating    string   `json:"rating"`
}

// CSVLine encodes the record as a single export line.
//
// Title and directors are quoted, year and rating are bare. Directors share a single
// quoted field joined by commas, so ["A", "B"] becomes "A,B". Importers that consume
// this format expect exactly that shape.
func (r Record) CSVLine() string {
	return fmt.Sprintf(`"%s",%s,"%s",%s`,
		r.Title,
		r.Year,
		strings.Join(r.Directors, ","),
		r.Rating,
	)
}

// NormalizeRating trims the rating text and returns its canonical integer form,
// or an empty string when it is not a number (unrated entries).
func NormalizeRating(text string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

// ParseCSVLine decodes a line produced by CSVLine. It does not handle quotes or
// commas embedded in the title.
func ParseCSVLine(line string) (Record, error) {
	var r Record

	rest, ok := strings.CutPrefix(line, `"`)
	if !ok {
		return r, fmt.Errorf("title is not quoted: %q", line)
	}
	title, rest, ok := strings.Cut(rest, `",`)
	if !ok {
		return r, fmt.Errorf("unterminated title: %q", line)
	}
	year, rest, ok := strings.Cut(rest, `,"`)
	if !ok {
		return r, fmt.Errorf("missing directors field: %q", line)
	}
	directors, rating, ok := strings.Cut(rest, `",`)
	if !ok {
		return r, fmt.Errorf("unterminated directors field: %q", line)
	}

	r.Title = title
	r.Year = year
	r.Rating = rating
	r.Directors = []string{}
	if directors != "" {
		r.Directors = strings.Split(directors, ",")
	}
	return r, nil
}

// Verdict is the classification of one fetched ratings page
type Verdict int

const (
	// VerdictValid means the page holds at least one record container
	VerdictValid Verdict = iota

	// VerdictUserAbsent means the site answered with its "Not Found" page
	VerdictUserAbsent

	// VerdictUnrecognizable means no record container could be located
	VerdictUnrecognizable
)

// String returns the string representation of the verdict
func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "Valid"
	case VerdictUserAbsent:
		return "UserAbsent"
	case VerdictUnrecognizable:
		return "Unrecognizable"
	default:
		return "Unknown"
	}
}

// OutputFormat selects how the result sink serializes records
type OutputFormat string

const (
	FormatCSV  OutputFormat = "csv"
	FormatJSON OutputFormat = "json"
)
