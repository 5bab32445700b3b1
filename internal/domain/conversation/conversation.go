package conversation

// Step identifies where a conversation sits in the report dialog.
type Step string

const (
	StepIdle                    Step = "idle"
	StepAwaitUnitType           Step = "await_unit_type"
	StepAwaitTruckNumber        Step = "await_truck_number"
	StepAwaitTrailerNumber      Step = "await_trailer_number"
	StepAwaitTrailerTruckNumber Step = "await_trailer_truck_number"
	StepAwaitDescription        Step = "await_description"
	StepAwaitPaidBy             Step = "await_paidby"
	StepAwaitTotal              Step = "await_total"
	StepAwaitNotes              Step = "await_notes"
	StepAwaitInvoice            Step = "await_invoice"
)

// Unit types collected during the dialog.
const (
	UnitTruck   = "Truck"
	UnitTrailer = "Trailer"
)

// Payer values collected during the dialog.
const (
	PaidByCompany = "company"
	PaidByDriver  = "driver"
)

// ReportFields accumulate over a dialog until finalization.
type ReportFields struct {
	UnitType    string `json:"unitType,omitempty"`
	Truck       string `json:"truck,omitempty"`
	Trailer     string `json:"trailer,omitempty"`
	Description string `json:"description,omitempty"`
	PaidBy      string `json:"paidBy,omitempty"`
	Total       string `json:"total,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// IsEmpty reports whether no field has been collected yet.
func (f ReportFields) IsEmpty() bool {
	return f == ReportFields{}
}

// State is the persisted per-conversation record.
type State struct {
	Step Step         `json:"step"`
	Data ReportFields `json:"data"`
}

// Initial returns the state assigned to a conversation never seen before.
func Initial() State {
	return State{Step: StepIdle}
}
