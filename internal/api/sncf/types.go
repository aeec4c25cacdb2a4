package sncf

import "time"

// Journey is one proposal leg for the searched passenger profile.
type Journey struct {
	Departure        time.Time
	Price            *float64
	UnsellableReason *string
}

// IsFree reports whether the journey is sellable at exactly zero fare.
func (j Journey) IsFree() bool {
	return j.UnsellableReason == nil && j.Price != nil && *j.Price == 0
}

// ProposalsRequest is the body of the train proposals endpoint.
type ProposalsRequest struct {
	DepartureTown   Town        `json:"departureTown"`
	DestinationTown Town        `json:"destinationTown"`
	Features        []string    `json:"features"`
	OutwardDate     string      `json:"outwardDate"`
	Passengers      []Passenger `json:"passengers"`
	TravelClass     string      `json:"travelClass"`
}

// Town identifies a station by its reservation system code.
type Town struct {
	Codes Codes `json:"codes"`
}

// Codes holds the station identifiers understood by the endpoint.
type Codes struct {
	Resarail string `json:"resarail"`
}

// Passenger is the synthetic traveller the search is priced for.
type Passenger struct {
	Age            int            `json:"age"`
	AgeRank        string         `json:"ageRank"`
	Birthday       string         `json:"birthday"`
	CommercialCard CommercialCard `json:"commercialCard"`
	Type           string         `json:"type"`
}

// CommercialCard carries the loyalty card number.
type CommercialCard struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

// ProposalsResponse is the decoded body of the proposals endpoint.
type ProposalsResponse struct {
	Journeys      []JourneyPayload `json:"journeys"`
	ExceptionType *string          `json:"exceptionType,omitempty"`
	Label         string           `json:"label,omitempty"`
}

// JourneyPayload is a journey as the endpoint sends it.
type JourneyPayload struct {
	DepartureDate    string  `json:"departureDate"`
	ArrivalDate      string  `json:"arrivalDate"`
	Price            *Price  `json:"price"`
	UnsellableReason *string `json:"unsellableReason"`
}

// Price is a fare amount.
type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Request constants for the single passenger profile.
const (
	CardTypeHappy   = "HAPPY_CARD"
	AgeRankYoung    = "YOUNG"
	PassengerHuman  = "HUMAN"
	TravelClass2nd  = "SECOND"
	FeatureTrainBus = "TRAIN_AND_BUS"
	FeatureDirect   = "DIRECT_TRAVEL"
)
