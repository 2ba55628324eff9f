// Package datetime turns free text into a calendar date, a time of day and the
// remaining description.
//
// Matching is delegated to olebedev/when with English, Russian and common
// rules. Numeric dates (2024-03-15, 15.03, 15.03.2024) are recognised here
// first and hidden from when, whose hour:minute rules would otherwise read
// "03-15" or "15.03" as a clock time. A time written next to such a date
// completes it.
//
// When a text contains several date/time expressions, the first one in text
// order wins. That is a heuristic, not a best-match guarantee: a later, more
// specific expression is never preferred.
package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/olebedev/when/rules/ru"

	"remindbot/internal/domain"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Result is a successful extraction.
type Result struct {
	Date        string
	Time        string
	Description string
	At          time.Time
	// Matched is the substring recognised as the date/time expression.
	Matched string
}

// Extractor is safe for concurrent use.
type Extractor struct {
	parser *when.Parser
}

// Leading words that belong to the expression when they directly precede it.
var prepositions = map[string]bool{
	"at": true, "on": true, "by": true,
	"в": true, "во": true, "на": true, "к": true,
}

// A dotted date without a year right after one of these is a clock time
// ("at 10.30", "в 11.10").
var timePrepositions = map[string]bool{
	"at": true, "@": true, "в": true, "во": true,
}

var (
	isoDate    = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dottedDate = regexp.MustCompile(`\b(\d{1,2})\.(\d{2})(?:\.(\d{4}))?\b`)
)

func NewExtractor() *Extractor {
	p := when.New(&rules.Options{Distance: 5, MatchByOrder: true})
	p.Add(en.All...)
	p.Add(
		ru.Weekday(rules.Override),
		ru.CasualDate(rules.Override),
		partOfDay{ru.CasualTime(rules.Override)},
		ru.Hour(rules.Override),
		ru.HourMinute(rules.Override),
		ru.Deadline(rules.Override),
		ru.Date(rules.Override),
		ru.DotDateTime(rules.Override),
	)
	p.Add(common.All...)
	return &Extractor{parser: p}
}

// span is a half-open byte range of the input text.
type span struct{ start, end int }

// Extract finds the first date/time expression in text. Relative expressions
// resolve against now, and the result is expressed in now's location. It
// returns domain.ErrExtractionNotFound when text holds no expression.
func (x *Extractor) Extract(text string, now time.Time) (Result, error) {
	loc := now.Location()
	date, day, hasDate := numericDate(text, now)

	masked := text
	if hasDate {
		masked = text[:day.start] + strings.Repeat(" ", day.end-day.start) + text[day.end:]
	}
	var clock span
	r, err := x.parser.Parse(masked, now)
	hasClock := err == nil && r != nil && r.Text != ""
	if hasClock {
		clock = span{r.Index, r.Index + len(r.Text)}
		hasClock = clock.start >= 0 && clock.end <= len(text)
	}

	var at time.Time
	var found span
	switch {
	case hasDate && hasClock && adjacent(text, day, clock):
		t := r.Time.In(loc)
		at = time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		found = span{min(day.start, clock.start), max(day.end, clock.end)}
	case hasClock && (!hasDate || clock.start < day.start):
		at = r.Time.In(loc)
		found = clock
	case hasDate:
		at = time.Date(date.Year(), date.Month(), date.Day(), now.Hour(), now.Minute(), 0, 0, loc)
		found = day
	default:
		return Result{}, domain.ErrExtractionNotFound
	}
	start, end := absorbPreposition(text, found.start), found.end

	desc := collapse(text[:start] + " " + text[end:])
	if desc == "" {
		desc = domain.DefaultDescription
	}
	return Result{
		Date:        at.Format(DateLayout),
		Time:        at.Format(TimeLayout),
		Description: desc,
		At:          at.Truncate(time.Minute),
		Matched:     strings.TrimSpace(text[start:end]),
	}, nil
}

// ResolveDate accepts an ISO date or any expression Extract understands and
// returns it as YYYY-MM-DD. An empty arg resolves to today.
func (x *Extractor) ResolveDate(arg string, now time.Time) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return now.Format(DateLayout), nil
	}
	if d, err := time.ParseInLocation(DateLayout, arg, now.Location()); err == nil {
		return d.Format(DateLayout), nil
	}
	r, err := x.Extract(arg, now)
	if err != nil {
		return "", domain.Validation("unrecognised date %q", arg)
	}
	return r.Date, nil
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTime reports whether s is a 24-hour HH:MM time.
func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil && len(s) == len(TimeLayout)
}

// numericDate finds the first ISO or day.month[.year] date in text. A missing
// year is now's year.
func numericDate(text string, now time.Time) (time.Time, span, bool) {
	var best span
	var date time.Time
	ok := false
	try := func(re *regexp.Regexp, ymd func(m []string, at int) (y, mo, d int, valid bool)) {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			if ok && idx[0] >= best.start {
				return
			}
			groups := make([]string, len(idx)/2)
			for g := range groups {
				if idx[2*g] >= 0 {
					groups[g] = text[idx[2*g]:idx[2*g+1]]
				}
			}
			y, mo, d, valid := ymd(groups, idx[0])
			if !valid {
				continue
			}
			t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, now.Location())
			if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
				continue
			}
			best, date, ok = span{idx[0], idx[1]}, t, true
			return
		}
	}
	try(isoDate, func(m []string, _ int) (int, int, int, bool) {
		return atoi(m[1]), atoi(m[2]), atoi(m[3]), true
	})
	try(dottedDate, func(m []string, at int) (int, int, int, bool) {
		y := now.Year()
		if m[3] != "" {
			y = atoi(m[3])
		}
		return y, atoi(m[2]), atoi(m[1]), m[3] != "" || !afterTimePreposition(text, at)
	})
	return date, best, ok
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func afterTimePreposition(text string, start int) bool {
	head := strings.TrimRightFunc(text[:start], unicode.IsSpace)
	word := head[strings.LastIndexFunc(head, unicode.IsSpace)+1:]
	return timePrepositions[strings.ToLower(word)]
}

// adjacent reports whether only whitespace or a preposition separates a and b.
func adjacent(text string, a, b span) bool {
	if b.start < a.start {
		a, b = b, a
	}
	if b.start < a.end {
		return false
	}
	gap := strings.ToLower(strings.TrimSpace(text[a.end:b.start]))
	return gap == "" || prepositions[gap]
}

// partOfDay drops bare meal words ("обед") from Russian part-of-day matches so
// they stay in the description; "после обеда" still means the afternoon.
type partOfDay struct{ rules.Rule }

func (p partOfDay) Find(text string) *rules.Match {
	offset := 0
	for offset < len(text) {
		m := p.Rule.Find(text[offset:])
		if m == nil {
			return nil
		}
		m.Left += offset
		m.Right += offset
		if !bareMeal(m.Text) {
			return m
		}
		offset = m.Right
	}
	return nil
}

func bareMeal(match string) bool {
	lower := strings.ToLower(strings.TrimSpace(match))
	if !strings.Contains(lower, "обед") {
		return false
	}
	for _, prefix := range []string{"после", "до", "к"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

func absorbPreposition(text string, start int) int {
	head := strings.TrimRightFunc(text[:start], unicode.IsSpace)
	i := strings.LastIndexFunc(head, unicode.IsSpace) + 1
	if prepositions[strings.ToLower(head[i:])] {
		return i
	}
	return start
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
