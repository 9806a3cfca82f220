package catalog

import (
	"sync"
)

// builtinDefinitions is ordered most specific first: on equal display length
// an earlier pattern wins the default tie-break.
var builtinDefinitions = []Definition{
	{ID: "iso_datetime_seconds", Grammar: "{iso_date} [HH]:[mm]:[ss]", Format: "2006-01-02 15:04:05"},
	{ID: "iso_datetime", Grammar: "{iso_date} {time_hm}", Format: "2006-01-02 15:04"},
	{ID: "iso_datetime_t", Grammar: "[yyyy]-[MM]-[dd]T[HH]:[mm]", Format: "2006-01-02T15:04"},
	{ID: "at_time_on_date", Grammar: "at {time_hm} on {date_dm}", Format: "at 15:04 on 02/01"},
	{ID: "date_at_time", Grammar: "{date_dm} at {time_hm}", Format: "02/01 at 15:04"},
	{ID: "date_dmy_time", Grammar: "{date_dmy} {time_hm}", Format: "02/01/2006 15:04"},
	{ID: "on_date", Grammar: "on {date_dm}", Format: "on 02/01"},
	{ID: "at_time", Grammar: "at {time_hm}", Format: "at 15:04"},
	{ID: "at_time_12h", Grammar: "at {time_12h}", Format: "at 3:04pm"},
	{ID: "iso_date", Grammar: "[yyyy]-[MM]-[dd]", Format: "2006-01-02"},
	{ID: "date_dmy", Grammar: "[dd]/[MM]/[yyyy]", Format: "02/01/2006"},
	{ID: "day_month_year", Grammar: "[d] [Month] [yyyy]", Format: "2 January 2006"},
	{ID: "day_month", Grammar: "[d] [Month]", Format: "2 January"},
	{ID: "month_day", Grammar: "[Month] [d]", Format: "January 2"},
	{ID: "day_mon", Grammar: "[d] [Mon]", Format: "2 Jan"},
	{ID: "date_dm", Grammar: "[dd]/[MM]", Format: "02/01"},
	{ID: "time_hms", Grammar: "[HH]:[mm]:[ss]", Format: "15:04:05"},
	{ID: "time_12h", Grammar: "[h]:[mm][ampm]", Format: "3:04pm"},
	{ID: "time_hm", Grammar: "[HH]:[mm]", Format: "15:04"},
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// BuiltinDefinitions returns a copy of the default pattern list
func BuiltinDefinitions() []Definition {
	defs := make([]Definition, len(builtinDefinitions))
	copy(defs, builtinDefinitions)
	return defs
}

// Builtin returns the process-wide default catalog. A malformed built-in
// pattern is a programming error and panics on first use.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := New(builtinDefinitions...)
		if err != nil {
			panic(err)
		}
		builtin = c
	})
	return builtin
}

// With returns a new catalog of the built-in patterns followed by extra.
// Extra patterns may reference built-in ones by ID.
func With(extra ...Definition) (*Catalog, error) {
	if len(extra) == 0 {
		return Builtin(), nil
	}
	return New(append(BuiltinDefinitions(), extra...)...)
}
