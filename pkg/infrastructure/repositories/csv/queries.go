package csv

import (
	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/services/stock"
)

// SearchByName returns rows whose drug name fuzzily matches query
func (s *Store) SearchByName(query string) ([]entities.EnrichedItem, error) {
	items, err := s.LoadInventory()
	if err != nil {
		return nil, err
	}
	return stock.Search(items, query, s.now()), nil
}

// ByLocation returns rows whose location contains the given text,
// case-insensitively
func (s *Store) ByLocation(location string) ([]entities.EnrichedItem, error) {
	items, err := s.LoadInventory()
	if err != nil {
		return nil, err
	}
	return stock.AtLocation(items, location, s.now()), nil
}

// LocationSummaries aggregates inventory per location, sorted by location
func (s *Store) LocationSummaries() ([]entities.LocationSummary, error) {
	items, err := s.LoadInventory()
	if err != nil {
		return nil, err
	}
	return stock.Summarize(items, s.now()), nil
}

// ExpiringWithin returns unexpired rows expiring within days, soonest first
func (s *Store) ExpiringWithin(days int) ([]entities.EnrichedItem, error) {
	items, err := s.LoadInventory()
	if err != nil {
		return nil, err
	}
	return stock.ExpiringWithin(items, days, s.now()), nil
}

// Expired returns rows whose expiry date has passed
func (s *Store) Expired() ([]entities.EnrichedItem, error) {
	items, err := s.LoadInventory()
	if err != nil {
		return nil, err
	}
	return stock.Expired(items, s.now()), nil
}

// LowStock returns unexpired rows below safety stock or out of stock
func (s *Store) LowStock() ([]entities.EnrichedItem, error) {
	items, err := s.LoadInventory()
	if err != nil {
		return nil, err
	}
	return stock.LowStock(items, s.now()), nil
}

// UsageStats aggregates the transactions of every drug whose name matches
// drugName over the trailing windowDays ending now
func (s *Store) UsageStats(drugName string, windowDays int) (*entities.UsageStats, error) {
	items, err := s.LoadInventory()
	if err != nil {
		return nil, err
	}
	txns, err := s.LoadTransactions()
	if err != nil {
		return nil, err
	}
	return stock.AggregateUsage(items, txns, drugName, windowDays, s.now()), nil
}
