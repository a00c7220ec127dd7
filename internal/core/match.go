package core

// Match partitions names by whether an equal full name exists in records.
//
// Both sides are normalized again at comparison time, so the result does not
// depend on whether the inputs were already canonical. Membership is an
// existence check: a name matched by several records appears once per
// occurrence in names, and records may be matched by several names.
// Matched and Unmatched keep the relative order of names and together
// contain every element of names exactly once.
func Match(names []string, records []NameRecord) MatchResult {
	index := make(map[string]struct{}, len(records))
	for _, rec := range records {
		index[NormalizeString(rec.FullName)] = struct{}{}
	}

	result := MatchResult{
		Matched:   make([]string, 0, len(names)),
		Unmatched: make([]string, 0, len(names)),
	}
	for _, name := range names {
		if _, ok := index[NormalizeString(name)]; ok {
			result.Matched = append(result.Matched, name)
		} else {
			result.Unmatched = append(result.Unmatched, name)
		}
	}
	return result
}

// ResultRow is one line of the side-by-side result table.
type ResultRow struct {
	Matched   string
	Unmatched string
}

// Rows zips Matched and Unmatched by position for display. The table is as
// long as the longer list; the shorter side is padded with "". Entries on
// the same row are unrelated.
func (r MatchResult) Rows() []ResultRow {
	n := len(r.Matched)
	if len(r.Unmatched) > n {
		n = len(r.Unmatched)
	}
	rows := make([]ResultRow, n)
	for i := range rows {
		if i < len(r.Matched) {
			rows[i].Matched = r.Matched[i]
		}
		if i < len(r.Unmatched) {
			rows[i].Unmatched = r.Unmatched[i]
		}
	}
	return rows
}
