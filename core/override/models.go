package override

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ftad-ncr/tapmonitor/core"
)

// Key is the composite identity of an override. At most one override exists per Key.
type Key struct {
	Office      string
	Division    string
	Period      string
	TargetIndex int
}

// Override is a locally authoritative completion status for one target of one record.
type Override struct {
	Office      string    `json:"office" db:"office"`
	Division    string    `json:"division" db:"division"`
	Period      string    `json:"period" db:"period"`
	TargetIndex int       `json:"target_index" db:"target_index"`
	Status      string    `json:"status" db:"status"`
	UpdatedBy   string    `json:"-" db:"updated_by"`
	UpdatedAt   time.Time `json:"-" db:"updated_at"` // UTC
}

func (o Override) Key() Key {
	return Key{Office: o.Office, Division: o.Division, Period: o.Period, TargetIndex: o.TargetIndex}
}

// NewOverride is a status edit submitted by an operator.
type NewOverride struct {
	Office      string  `json:"office" validate:"required"`
	Division    string  `json:"division" validate:"required"`
	Period      string  `json:"period"`
	TargetIndex *int    `json:"targetIndex" validate:"required,min=0"`
	Status      *string `json:"status" validate:"required"`
	Username    string  `json:"username"`
	// IfStatus, when set, makes the write conditional on the currently stored status ("" = no override yet).
	IfStatus *string `json:"ifStatus,omitempty"`
}

// Validate cleans the identity fields and checks the payload.
// Missing identity yields ErrMissingIdentity wrapped in a core.ValidationError.
func (no *NewOverride) Validate(validate *validator.Validate) error {
	no.Office = core.CleanString(no.Office)
	no.Division = core.CleanString(no.Division)
	no.Period = core.CleanString(no.Period)
	no.Username = core.CleanString(no.Username)

	if no.Office == "" || no.Division == "" || no.Status == nil {
		return core.NewValidationError(ErrMissingIdentity)
	}
	return validate.Struct(no)
}

func (no NewOverride) override(now time.Time) Override {
	o := Override{
		Office:    no.Office,
		Division:  no.Division,
		Period:    no.Period,
		UpdatedBy: no.Username,
		UpdatedAt: now,
	}
	if no.TargetIndex != nil {
		o.TargetIndex = *no.TargetIndex
	}
	if no.Status != nil {
		o.Status = *no.Status
	}
	return o
}
