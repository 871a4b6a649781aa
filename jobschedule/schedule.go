package jobschedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relaybatch/batchjob/l3"
)

var logger = l3.Get()

// ErrInvalidCrontab is returned by FromCrontab when the expression does not
// have exactly five space-separated fields, or when the hour/minute fields
// are anything other than a single integer.
var ErrInvalidCrontab = errors.New("jobschedule: invalid crontab expression")

// Schedule is a conjunction of four independent predicates over a UTC
// timestamp: inMonths, onDays, onWeekdays (each a cron-field expression
// checked with CheckCron) and afterTime (a time-of-day lower bound). An
// empty predicate is unconstrained — it always matches.
type Schedule struct {
	inMonths   string
	onDays     string
	onWeekdays string
	afterTime  *time.Time // only hour/minute/second are meaningful
}

// Option configures a Schedule constructed with New.
type Option func(*Schedule)

// WithMonths constrains the schedule to the given cron month expression.
func WithMonths(expr string) Option {
	return func(s *Schedule) { s.inMonths = expr }
}

// WithDays constrains the schedule to the given cron day-of-month expression.
func WithDays(expr string) Option {
	return func(s *Schedule) { s.onDays = expr }
}

// WithWeekdays constrains the schedule to the given cron weekday expression,
// using ISO weekday numbering (Monday=1 ... Sunday=7).
func WithWeekdays(expr string) Option {
	return func(s *Schedule) { s.onWeekdays = expr }
}

// WithAfter constrains the schedule to fire only at or after the given
// time-of-day (hour, minute, second); only those three fields are used.
func WithAfter(hour, minute, second int) Option {
	return func(s *Schedule) {
		t := time.Date(0, 1, 1, hour, minute, second, 0, time.UTC)
		s.afterTime = &t
	}
}

// New builds a Schedule from the given options. A Schedule with no options
// set always matches.
func New(opts ...Option) *Schedule {
	s := &Schedule{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check reports whether base fires the schedule: all set predicates must
// match (an unset predicate always matches).
func (s *Schedule) Check(base time.Time) bool {
	if s.inMonths != "" && !CheckCron(s.inMonths, int(base.Month())) {
		return false
	}
	if s.onDays != "" && !CheckCron(s.onDays, base.Day()) {
		return false
	}
	if s.onWeekdays != "" && !CheckCron(s.onWeekdays, isoWeekday(base)) {
		return false
	}
	if s.afterTime != nil {
		hh, mm, ss := base.Clock()
		now := time.Date(0, 1, 1, hh, mm, ss, 0, time.UTC)
		if now.Before(*s.afterTime) {
			return false
		}
	}
	return true
}

// isoWeekday converts time.Time's Sunday=0..Saturday=6 numbering to ISO
// weekday numbering: Monday=1..Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// FromCrontab parses a 5-field "MM HH DoM Mon DoW" expression (minute, hour,
// day-of-month, month, weekday) into a Schedule. The minute and hour fields
// must each be a single integer — they become afterTime's lower bound, not a
// recurring cron field — any range, list, or step in either fails parsing.
// An empty expression yields an unconstrained (always-fires) Schedule.
func FromCrontab(expr string) (*Schedule, error) {
	if strings.TrimSpace(expr) == "" {
		return New(), nil
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidCrontab, len(fields))
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("%w: minute field must be a single integer in [0,59]", ErrInvalidCrontab)
	}
	hour, err := strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("%w: hour field must be a single integer in [0,23]", ErrInvalidCrontab)
	}

	logger.DebugF("jobschedule: parsed crontab %q into days=%s months=%s weekdays=%s after=%02d:%02d:00",
		expr, fields[2], fields[3], fields[4], hour, minute)

	return New(
		WithDays(fields[2]),
		WithMonths(fields[3]),
		WithWeekdays(fields[4]),
		WithAfter(hour, minute, 0),
	), nil
}
