// Package location holds the registry of QR-bound physical locations that
// anchor the trust model: every report and every verification vote must
// originate inside a registered location's geofence.
package location

import (
	id "civictrust/pkg/domain"
)

// Type classifies a registered location.
type Type string

const (
	TypePark             Type = "PARK"
	TypePublicToilet     Type = "PUBLIC_TOILET"
	TypeBusStand         Type = "BUS_STAND"
	TypePublicBin        Type = "PUBLIC_BIN"
	TypeGovernmentOffice Type = "GOVERNMENT_OFFICE"
	TypeStreetSegment    Type = "STREET_SEGMENT"
)

// Location is created by municipal staff at onboarding time. It is immutable
// except for administrative correction and never deleted while reports
// reference it.
type Location struct {
	ID                   id.LocationID
	Name                 string
	Type                 Type
	MunicipalityID       id.MunicipalityID
	Latitude             float64
	Longitude            float64
	GeofenceRadiusMeters float64
}
