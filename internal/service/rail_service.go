package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUpstream wraps every failure of the railway data API.
var ErrUpstream = errors.New("upstream request failed")

// FareQuery selects a fare by train and station pair.
type FareQuery struct {
	TrainNo         string
	FromStationCode string
	ToStationCode   string
}

// RailClient is the transport used to reach the railway data API.
type RailClient interface {
	Fare(ctx context.Context, trainNo, fromStationCode, toStationCode string) ([]byte, error)
	PNRStatus(ctx context.Context, pnr string) ([]byte, error)
}

// RailService proxies fare and PNR lookups, passing the upstream payload through untouched.
type RailService interface {
	FetchFare(ctx context.Context, q FareQuery) (json.RawMessage, error)
	FetchPNRStatus(ctx context.Context, pnr string) (json.RawMessage, error)
}

type railService struct {
	client RailClient
}

func NewRailService(client RailClient) RailService {
	return &railService{client: client}
}

func (s *railService) FetchFare(ctx context.Context, q FareQuery) (json.RawMessage, error) {
	body, err := s.client.Fare(ctx, q.TrainNo, q.FromStationCode, q.ToStationCode)
	if err != nil {
		return nil, fmt.Errorf("%w: fare: %w", ErrUpstream, err)
	}
	return asJSON(body)
}

func (s *railService) FetchPNRStatus(ctx context.Context, pnr string) (json.RawMessage, error) {
	body, err := s.client.PNRStatus(ctx, pnr)
	if err != nil {
		return nil, fmt.Errorf("%w: pnr status: %w", ErrUpstream, err)
	}
	return asJSON(body)
}

// asJSON keeps JSON bodies verbatim and wraps anything else as a JSON string.
func asJSON(body []byte) (json.RawMessage, error) {
	if json.Valid(body) {
		return json.RawMessage(body), nil
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", ErrUpstream, err)
	}
	return encoded, nil
}
