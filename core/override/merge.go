package override

import "github.com/ftad-ncr/tapmonitor/core/feed"

type recordKey struct {
	office, division, period string
}

// Merge returns a copy of records where the TAP status of every target with a matching override
// (same office, division, period and 0-based target position) is replaced by the override status.
// All other target fields are kept. Duplicate overrides for one key resolve to the first one.
//
// orphans lists overrides whose record exists but has no target at the override index,
// typically after a column reorder in the spreadsheet.
func Merge(records []feed.Record, overrides []Override) (merged []feed.Record, orphans []Override) {
	byKey := make(map[Key]Override, len(overrides))
	for _, o := range overrides {
		if _, ok := byKey[o.Key()]; !ok {
			byKey[o.Key()] = o
		}
	}

	targetCounts := make(map[recordKey]int, len(records))
	merged = make([]feed.Record, len(records))
	for i, rec := range records {
		rk := recordKey{rec.Office, rec.DivisionSchool, rec.Period}
		if n, ok := targetCounts[rk]; !ok || len(rec.Targets) > n {
			targetCounts[rk] = len(rec.Targets)
		}

		if len(byKey) > 0 && len(rec.Targets) > 0 {
			targets := make([]feed.Target, len(rec.Targets))
			copy(targets, rec.Targets)
			for j := range targets {
				key := Key{Office: rec.Office, Division: rec.DivisionSchool, Period: rec.Period, TargetIndex: j}
				if o, ok := byKey[key]; ok {
					targets[j].TAPStatus = o.Status
				}
			}
			rec.Targets = targets
		}
		merged[i] = rec
	}

	reported := make(map[Key]bool)
	for _, o := range overrides {
		if reported[o.Key()] {
			continue
		}
		reported[o.Key()] = true
		n, ok := targetCounts[recordKey{o.Office, o.Division, o.Period}]
		if ok && (o.TargetIndex < 0 || o.TargetIndex >= n) {
			orphans = append(orphans, o)
		}
	}
	return merged, orphans
}
