package feed

// Thematic groups
const (
	GroupAccess     = "access"
	GroupEquity     = "equity"
	GroupQuality    = "quality"
	GroupResilience = "resilience"
	GroupEnabling   = "enabling"
)

const (
	// MaxSlots is the number of numbered columns per repeating field (targets, category items, agreements, signatories).
	MaxSlots = 5
	// HeaderWindow is the number of leading rows scanned for the header row.
	HeaderWindow = 25
)

var (
	Groups = []string{GroupAccess, GroupEquity, GroupQuality, GroupResilience, GroupEnabling}

	bulletMarkers = []string{"●", "•"}
)

// Row is one tokenized spreadsheet line. Rows have no guaranteed arity.
type Row []string

// CategoryItem is one status/issue pair of a thematic group.
type CategoryItem struct {
	Status string `json:"status"`
	Issue  string `json:"issue"`
}

// Target is one TA objective of a record.
type Target struct {
	Objective      string `json:"objective"`
	PlannedAction  string `json:"plannedAction"`
	DueDate        string `json:"dueDate"`
	Status         string `json:"status"`
	HelpNeeded     string `json:"helpNeeded"`
	Agree          string `json:"agree,omitempty"`
	SpecificOffice string `json:"specificOffice,omitempty"`
	TAPDueDate     string `json:"tapDueDate,omitempty"`
	TAPStatus      string `json:"tapStatus,omitempty"`
}

// CompletionStatus is the status used for reporting: the TAP completion status when set,
// the sheet-reported status otherwise.
func (t Target) CompletionStatus() string {
	if t.TAPStatus != "" {
		return t.TAPStatus
	}
	return t.Status
}

type Agreement struct {
	Agree          string `json:"agree"`
	SpecificOffice string `json:"specificOffice"`
	DueDate        string `json:"dueDate"`
	Status         string `json:"status"`
}

type Signatory struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

type Misc struct {
	TAName4        string `json:"taName4"`
	TAPosition4    string `json:"taPosition4"`
	TASignature4   string `json:"taSignature4"`
	DeptName5      string `json:"deptName5"`
	DeptPosition5  string `json:"deptPosition5"`
	DeptSignature5 string `json:"deptSignature5"`
	TAName5        string `json:"taName5"`
	TAPosition5    string `json:"taPosition5"`
	TASignature5   string `json:"taSignature5"`
	DeptTeamDate   string `json:"deptTeamDate"`
	TATeamDate     string `json:"taTeamDate"`
}

// Record is one TA plan row. ID is positional ("row-<index>"), not a domain key.
type Record struct {
	ID             string `json:"id"`
	Office         string `json:"office"`
	District       string `json:"district"`
	DivisionSchool string `json:"divisionSchool"`
	Period         string `json:"period"`
	TAReceiver     string `json:"taReceiver"`
	TAProvider     string `json:"taProvider"`

	Access     []CategoryItem `json:"access"`
	Equity     []CategoryItem `json:"equity"`
	Quality    []CategoryItem `json:"quality"`
	Resilience []CategoryItem `json:"resilience"`
	Enabling   []CategoryItem `json:"enabling"`

	Reasons             []string    `json:"reasons"`
	Targets             []Target    `json:"targets"`
	Agreements          []Agreement `json:"agreements"`
	ReceiverSignatories []Signatory `json:"receiverSignatories"`
	ProviderSignatories []Signatory `json:"providerSignatories"`

	Misc Misc `json:"misc"`
	Raw  Row  `json:"raw"`
}

// Category returns the items of a thematic group.
func (r *Record) Category(group string) []CategoryItem {
	switch group {
	case GroupAccess:
		return r.Access
	case GroupEquity:
		return r.Equity
	case GroupQuality:
		return r.Quality
	case GroupResilience:
		return r.Resilience
	case GroupEnabling:
		return r.Enabling
	}
	return nil
}

func (r *Record) setCategory(group string, items []CategoryItem) {
	switch group {
	case GroupAccess:
		r.Access = items
	case GroupEquity:
		r.Equity = items
	case GroupQuality:
		r.Quality = items
	case GroupResilience:
		r.Resilience = items
	case GroupEnabling:
		r.Enabling = items
	}
}
