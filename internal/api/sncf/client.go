package sncf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danpilch/maxpal/internal/tz"
)

// DefaultURL is the mobile app's train proposals endpoint.
const DefaultURL = "https://wshoraires.oui.sncf/m770/vmd/maq/v3/proposals/train"

const userAgent = "OUI.sncf/65.1.1 CFNetwork/1107.1 Darwin/19.0.0"

// Client is an oui.sncf journey search client.
type Client struct {
	httpClient *http.Client
	url        string
}

// NewClient creates a new client. Each call is bounded by timeout.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

// SearchJourneys returns the proposals departing from outward onwards, in the
// order the endpoint sends them.
func (c *Client) SearchJourneys(ctx context.Context, origin, destination string, outward time.Time, cardNumber string) ([]Journey, error) {
	body, err := json.Marshal(newProposalsRequest(origin, destination, outward, cardNumber))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "fr-FR")
	req.Header.Set("Content-Type", "application/json;charset=UTF8")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-vsc-locale", "fr_FR")
	req.Header.Set("X-Device-Type", "IOS")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	result, err := checkResponse(resp.StatusCode, data)
	if err != nil {
		return nil, err
	}

	journeys := make([]Journey, 0, len(result.Journeys))
	for _, j := range result.Journeys {
		departure, err := tz.Parse(j.DepartureDate)
		if err != nil {
			return nil, &ProtocolError{StatusCode: resp.StatusCode, Reason: "invalid departureDate", Err: err}
		}
		journey := Journey{Departure: departure, UnsellableReason: j.UnsellableReason}
		if j.Price != nil {
			value := j.Price.Value
			journey.Price = &value
		}
		journeys = append(journeys, journey)
	}

	return journeys, nil
}

// checkResponse turns a raw response into a page or a ProtocolError. The
// endpoint sometimes reports failures with a 200 and an exceptionType field;
// those are treated as a 500.
func checkResponse(statusCode int, data []byte) (*ProposalsResponse, error) {
	var result ProposalsResponse
	decodeErr := json.Unmarshal(data, &result)

	if statusCode < 200 || statusCode > 299 {
		perr := &ProtocolError{StatusCode: statusCode, Reason: http.StatusText(statusCode)}
		if decodeErr == nil {
			perr.Label = result.Label
		}
		return nil, perr
	}
	if decodeErr != nil {
		return nil, &ProtocolError{StatusCode: statusCode, Reason: "decoding response", Err: decodeErr}
	}
	if result.ExceptionType != nil {
		return nil, &ProtocolError{
			StatusCode: http.StatusInternalServerError,
			Reason:     *result.ExceptionType,
			Label:      result.Label,
		}
	}
	return &result, nil
}

func newProposalsRequest(origin, destination string, outward time.Time, cardNumber string) ProposalsRequest {
	return ProposalsRequest{
		DepartureTown:   Town{Codes: Codes{Resarail: origin}},
		DestinationTown: Town{Codes: Codes{Resarail: destination}},
		Features:        []string{FeatureTrainBus, FeatureDirect},
		OutwardDate:     tz.Outward(outward),
		Passengers: []Passenger{
			{
				Age:      25,
				AgeRank:  AgeRankYoung,
				Birthday: "1995-03-06",
				CommercialCard: CommercialCard{
					Number: cardNumber,
					Type:   CardTypeHappy,
				},
				Type: PassengerHuman,
			},
		},
		TravelClass: TravelClass2nd,
	}
}
