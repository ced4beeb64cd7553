package feed

import "fmt"

// Candidate labels per logical field, most recent spreadsheet revision last.
// "%d" is replaced with the 1-based slot number.
var (
	officeLabels   = []string{"OFFICE"}
	districtLabels = []string{"DISTRICT"}
	divisionLabels = []string{"DIVISION SCHOOL", "DIVISION"}
	periodLabels   = []string{"PERIOD"}
	receiverLabels = []string{"TA RECEIVER"}
	providerLabels = []string{"TA PROVIDER"}
	reasonLabels   = []string{"REASON %d"}

	objectiveLabels      = []string{"OBJECT OF THE TARGET RECIPIENT %d", "OBJECTIVE OF THE TARGET %d", "OBJECTIVE %d"}
	plannedActionLabels  = []string{"PLANEED ACTION %d", "PLANNED ACTION %d"}
	dueDateLabels        = []string{"TARGET DUE DATE %d"}
	statusLabels         = []string{"STATUS COMPLETION %d"}
	helpNeededLabels     = []string{"TA NEEDED HELP NEEDED %d", "TA NEEDED/HELP NEEDED %d", "HELP NEEDED %d"}
	agreeLabels          = []string{"Agree%d"}
	specificOfficeLabels = []string{"SpecificOffice%d"}
	tapDueDateLabels     = []string{"TAPDueDate%d"}
	tapStatusLabels      = []string{"TAPStatusCompletion%d"}

	categoryStatusLabels = []string{"%sSTATUS%d"}
	categoryIssueLabels  = []string{"%sISSUE%d"}

	receiverNameLabels     = []string{"RecieverSignatories%d", "ReceiverSignatories%d"}
	receiverPositionLabels = []string{"receiverpoistion%d", "ReceiverPosition%d"}
	providerNameLabels     = []string{"ProviderSignature%d"}
	providerPositionLabels = []string{"ProviderPosition%d"}
)

const reasonSlots = 3

type targetColumns struct {
	objective, plannedAction, dueDate, status, helpNeeded int
	agree, specificOffice, tapDueDate, tapStatus          int
}

type itemColumns struct {
	status, issue int
}

type signatoryColumns struct {
	name, position int
}

type miscColumns struct {
	taName4, taPosition4, taSignature4       int
	deptName5, deptPosition5, deptSignature5 int
	taName5, taPosition5, taSignature5       int
	deptTeamDate, taTeamDate                 int
}

// Layout holds the resolved column of every logical field. Resolution happens once per fetch;
// rows are then read positionally.
type Layout struct {
	office, district, division, period, receiver, provider int

	reasons    [reasonSlots]int
	targets    [MaxSlots]targetColumns
	categories map[string][MaxSlots]itemColumns
	receivers  [MaxSlots]signatoryColumns
	providers  [MaxSlots]signatoryColumns
	misc       miscColumns
}

func slotLabels(templates []string, args ...interface{}) []string {
	labels := make([]string, len(templates))
	for i, t := range templates {
		labels[i] = fmt.Sprintf(t, args...)
	}
	return labels
}

// NewLayout resolves every logical field against the header index.
func NewLayout(idx *HeaderIndex) *Layout {
	l := &Layout{
		office:     idx.Resolve(officeLabels...),
		district:   idx.Resolve(districtLabels...),
		division:   idx.Resolve(divisionLabels...),
		period:     idx.Resolve(periodLabels...),
		receiver:   idx.Resolve(receiverLabels...),
		provider:   idx.Resolve(providerLabels...),
		categories: make(map[string][MaxSlots]itemColumns, len(Groups)),
	}

	for j := 1; j <= reasonSlots; j++ {
		l.reasons[j-1] = idx.Resolve(slotLabels(reasonLabels, j)...)
	}

	for j := 1; j <= MaxSlots; j++ {
		l.targets[j-1] = targetColumns{
			objective:      idx.Resolve(slotLabels(objectiveLabels, j)...),
			plannedAction:  idx.Resolve(slotLabels(plannedActionLabels, j)...),
			dueDate:        idx.Resolve(slotLabels(dueDateLabels, j)...),
			status:         idx.Resolve(slotLabels(statusLabels, j)...),
			helpNeeded:     idx.Resolve(slotLabels(helpNeededLabels, j)...),
			agree:          idx.Resolve(slotLabels(agreeLabels, j)...),
			specificOffice: idx.Resolve(slotLabels(specificOfficeLabels, j)...),
			tapDueDate:     idx.Resolve(slotLabels(tapDueDateLabels, j)...),
			tapStatus:      idx.Resolve(slotLabels(tapStatusLabels, j)...),
		}
		l.receivers[j-1] = signatoryColumns{
			name:     idx.Resolve(slotLabels(receiverNameLabels, j)...),
			position: idx.Resolve(slotLabels(receiverPositionLabels, j)...),
		}
		l.providers[j-1] = signatoryColumns{
			name:     idx.Resolve(slotLabels(providerNameLabels, j)...),
			position: idx.Resolve(slotLabels(providerPositionLabels, j)...),
		}
	}

	for _, group := range Groups {
		var cols [MaxSlots]itemColumns
		prefix := NormalizeLabel(group, idx.strict)
		for j := 1; j <= MaxSlots; j++ {
			cols[j-1] = itemColumns{
				status: idx.Resolve(slotLabels(categoryStatusLabels, prefix, j)...),
				issue:  idx.Resolve(slotLabels(categoryIssueLabels, prefix, j)...),
			}
		}
		l.categories[group] = cols
	}

	l.misc = miscColumns{
		taName4:        idx.Lookup("ta name 4"),
		taPosition4:    idx.Lookup("ta position 4"),
		taSignature4:   idx.Lookup("ta signature 4"),
		deptName5:      idx.Lookup("dept name 5"),
		deptPosition5:  idx.Lookup("dept position 5"),
		deptSignature5: idx.Lookup("dept signature 5"),
		taName5:        idx.Lookup("ta name 5"),
		taPosition5:    idx.Lookup("ta position 5"),
		taSignature5:   idx.Lookup("ta signature 5"),
		deptTeamDate:   idx.Lookup("dept team date"),
		taTeamDate:     idx.Lookup("ta team date"),
	}
	return l
}
