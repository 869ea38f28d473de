// Package domain holds typed identifiers shared across the engine. Wrapping
// uuid.UUID in distinct types lets the compiler catch a report ID being passed
// where a user ID belongs.
package domain

import (
	"github.com/google/uuid"

	dErrors "civictrust/pkg/domain-errors"
)

type (
	UserID         uuid.UUID
	ReportID       uuid.UUID
	LocationID     uuid.UUID
	MunicipalityID uuid.UUID
	PeriodID       uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ReportID) String() string       { return uuid.UUID(id).String() }
func (id LocationID) String() string     { return uuid.UUID(id).String() }
func (id MunicipalityID) String() string { return uuid.UUID(id).String() }
func (id PeriodID) String() string       { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ReportID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id LocationID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id MunicipalityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PeriodID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// NewUserID and friends mint fresh identifiers.
func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewReportID() ReportID             { return ReportID(uuid.New()) }
func NewLocationID() LocationID         { return LocationID(uuid.New()) }
func NewMunicipalityID() MunicipalityID { return MunicipalityID(uuid.New()) }
func NewPeriodID() PeriodID             { return PeriodID(uuid.New()) }

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(dErrors.CodeValidation, "id must be a valid UUID", err)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id must not be the nil UUID")
	}
	return u, nil
}

// ParseUserID validates s as a non-nil UUID. The remaining Parse helpers
// follow the same contract.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s)
	return UserID(u), err
}

func ParseReportID(s string) (ReportID, error) {
	u, err := parse(s)
	return ReportID(u), err
}

func ParseLocationID(s string) (LocationID, error) {
	u, err := parse(s)
	return LocationID(u), err
}

func ParseMunicipalityID(s string) (MunicipalityID, error) {
	u, err := parse(s)
	return MunicipalityID(u), err
}

func ParsePeriodID(s string) (PeriodID, error) {
	u, err := parse(s)
	return PeriodID(u), err
}
