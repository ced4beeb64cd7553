package feed

import (
	"fmt"
	"strings"
)

// minCells is the shortest data row considered; shorter rows are notes or spill-over lines.
const minCells = 5

// Parser turns spreadsheet rows into TA records.
type Parser struct {
	// StrictHeaders strips every non-alphanumeric character from labels instead of whitespace, "_" and "/" only.
	StrictHeaders bool
	// HeaderWindow overrides the number of leading rows scanned for the header (default HeaderWindow).
	HeaderWindow int
}

// ParseText tokenizes CSV text and parses it.
func (p Parser) ParseText(text string) ([]Record, error) {
	return p.Parse(Tokenize(text))
}

// Parse extracts one Record per data row following the header row.
// ErrNoHeader is returned (with no records) when no header row is found in the scanned window.
func (p Parser) Parse(rows []Row) ([]Record, error) {
	window := p.HeaderWindow
	if window == 0 {
		window = HeaderWindow
	}
	headerPos, err := FindHeader(rows, window)
	if err != nil {
		return []Record{}, err
	}

	idx := NewHeaderIndex(rows[headerPos], p.StrictHeaders)
	layout := NewLayout(idx)

	// a header narrower than minCells accepts rows as wide as itself
	minWidth := minCells
	if idx.Len() < minWidth {
		minWidth = idx.Len()
	}

	records := make([]Record, 0, len(rows)-headerPos-1)
	for i := headerPos + 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < minWidth {
			continue
		}
		office := cell(row, layout.office)
		if office == "" || isDivider(office) {
			continue
		}
		records = append(records, layout.extract(i, row))
	}
	return records, nil
}

func isDivider(office string) bool {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(office, marker) {
			return true
		}
	}
	return false
}

func (l *Layout) extract(pos int, row Row) Record {
	rec := Record{
		ID:             fmt.Sprintf("row-%d", pos),
		Office:         cell(row, l.office),
		District:       cell(row, l.district),
		DivisionSchool: cell(row, l.division),
		Period:         cell(row, l.period),
		TAReceiver:     cell(row, l.receiver),
		TAProvider:     cell(row, l.provider),
		Reasons:        l.extractReasons(row),
		Targets:        l.extractTargets(row),
		Agreements:     l.extractAgreements(row),
		Misc:           l.extractMisc(row),
		Raw:            row,
	}
	for _, group := range Groups {
		rec.setCategory(group, l.extractCategory(group, row))
	}
	rec.ReceiverSignatories = extractSignatories(l.receivers, row)
	rec.ProviderSignatories = extractSignatories(l.providers, row)
	return rec
}

func (l *Layout) extractReasons(row Row) []string {
	reasons := make([]string, 0, reasonSlots)
	for _, col := range l.reasons {
		if v := cell(row, col); v != "" {
			reasons = append(reasons, v)
		}
	}
	return reasons
}

// extractTargets emits a target only when its objective is set. Slot order is kept;
// overrides address targets by their position in the returned list.
func (l *Layout) extractTargets(row Row) []Target {
	targets := make([]Target, 0, MaxSlots)
	for _, cols := range l.targets {
		objective := cell(row, cols.objective)
		if objective == "" {
			continue
		}
		targets = append(targets, Target{
			Objective:      objective,
			PlannedAction:  cell(row, cols.plannedAction),
			DueDate:        cell(row, cols.dueDate),
			Status:         cell(row, cols.status),
			HelpNeeded:     cell(row, cols.helpNeeded),
			Agree:          cell(row, cols.agree),
			SpecificOffice: cell(row, cols.specificOffice),
			TAPDueDate:     cell(row, cols.tapDueDate),
			TAPStatus:      cell(row, cols.tapStatus),
		})
	}
	return targets
}

func (l *Layout) extractAgreements(row Row) []Agreement {
	agreements := make([]Agreement, 0, MaxSlots)
	for _, cols := range l.targets {
		agree := cell(row, cols.agree)
		if agree == "" {
			continue
		}
		agreements = append(agreements, Agreement{
			Agree:          agree,
			SpecificOffice: cell(row, cols.specificOffice),
			DueDate:        cell(row, cols.tapDueDate),
			Status:         cell(row, cols.tapStatus),
		})
	}
	return agreements
}

func (l *Layout) extractCategory(group string, row Row) []CategoryItem {
	items := make([]CategoryItem, 0, MaxSlots)
	for _, cols := range l.categories[group] {
		status := cell(row, cols.status)
		if status == "" {
			continue
		}
		items = append(items, CategoryItem{Status: status, Issue: cell(row, cols.issue)})
	}
	return items
}

func extractSignatories(slots [MaxSlots]signatoryColumns, row Row) []Signatory {
	sigs := make([]Signatory, 0, MaxSlots)
	for _, cols := range slots {
		name := cell(row, cols.name)
		if name == "" {
			continue
		}
		sigs = append(sigs, Signatory{Name: name, Position: cell(row, cols.position)})
	}
	return sigs
}

func (l *Layout) extractMisc(row Row) Misc {
	return Misc{
		TAName4:        cell(row, l.misc.taName4),
		TAPosition4:    cell(row, l.misc.taPosition4),
		TASignature4:   cell(row, l.misc.taSignature4),
		DeptName5:      cell(row, l.misc.deptName5),
		DeptPosition5:  cell(row, l.misc.deptPosition5),
		DeptSignature5: cell(row, l.misc.deptSignature5),
		TAName5:        cell(row, l.misc.taName5),
		TAPosition5:    cell(row, l.misc.taPosition5),
		TASignature5:   cell(row, l.misc.taSignature5),
		DeptTeamDate:   cell(row, l.misc.deptTeamDate),
		TATeamDate:     cell(row, l.misc.taTeamDate),
	}
}
