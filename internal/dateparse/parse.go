// Package dateparse turns the free-text publication dates found in
// bibliographic records into calendar dates.
package dateparse

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/joshu-sajeev/researchindex/common"
)

var (
	yearOnly = regexp.MustCompile(`^\d{4}$`)

	// "January-June 2006", "Jan -Jun 2020", "March - June 2015", "April- August 2020"
	monthRange = regexp.MustCompile(`(?i)^([a-z]+)\.?\s*-\s*([a-z]+)\.?,?\s+(\d{4})$`)
)

var months = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		months[name] = m
		months[name[:3]] = m
	}
	months["sept"] = time.September
}

// Formats tried after the built-in rules. Numeric dates are month first.
var extraFormats = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
}

// timeFormats puts extraFormats ahead of the jinzhu/now defaults, which
// cover ISO date-times such as "2023-05-20T10:00:00Z".
var timeFormats = append(slices.Clone(extraFormats), now.TimeFormats...)

// Parser parses publication dates against a clock. The zero value uses
// time.Now and time.UTC.
type Parser struct {
	Now      func() time.Time
	Location *time.Location
}

var defaultParser Parser

// Parse parses s with the default parser.
func Parse(s string) (time.Time, error) {
	return defaultParser.Parse(s)
}

// Parse returns the calendar date (midnight, parser location) for s.
// Blank input yields today. Unrecognized input wraps common.ErrInvalidDateFormat.
func (p Parser) Parse(s string) (time.Time, error) {
	loc := p.location()
	input := strings.TrimSpace(s)

	if input == "" {
		return dateOf(p.now().In(loc), loc), nil
	}

	// Year 0 is not a valid DATE in the store.
	if yearOnly.MatchString(input) {
		year, _ := strconv.Atoi(input)
		if year == 0 {
			return time.Time{}, invalid(s)
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc), nil
	}

	if m := monthRange.FindStringSubmatch(input); m != nil {
		first, ok := months[strings.ToLower(m[1])]
		_, okEnd := months[strings.ToLower(m[2])]
		if ok && okEnd {
			year, _ := strconv.Atoi(m[3])
			if year == 0 {
				return time.Time{}, invalid(s)
			}
			return time.Date(year, first, 1, 0, 0, 0, 0, loc), nil
		}
	}

	cfg := &now.Config{
		TimeLocation: loc,
		TimeFormats:  timeFormats,
	}
	t, err := cfg.With(p.now().In(loc)).Parse(input)
	if err != nil {
		return time.Time{}, invalid(s)
	}

	return dateOf(t, loc), nil
}

func invalid(s string) error {
	return fmt.Errorf("%w: %q", common.ErrInvalidDateFormat, s)
}

func (p Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p Parser) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.UTC
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
