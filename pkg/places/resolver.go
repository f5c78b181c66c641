package places

import (
	"fmt"

	"fsqpull/pkg/foursquare"
	"fsqpull/pkg/logger"
	"fsqpull/pkg/store"
)

// Resolver returns cached place details or fetches-and-caches them exactly
// once per identifier per database lifetime. Place data is never refreshed
// by the sync engine.
type Resolver struct {
	store      *store.Store
	client     *foursquare.Client
	serviceKey string
	logger     logger.Logger
}

// New creates a place resolver using the service-wide credential
func New(st *store.Store, client *foursquare.Client, serviceKey string, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		store:      st,
		client:     client,
		serviceKey: serviceKey,
		logger:     log,
	}
}

// Resolve returns the place record for the identifier and whether it was
// newly fetched and persisted by this call. A cache hit returns the stored
// row without any network call.
func (r *Resolver) Resolve(placeID string) (*store.Place, bool, error) {
	if placeID == "" {
		return nil, false, fmt.Errorf("place id is required")
	}

	exists, err := r.store.PlaceExists(placeID)
	if err != nil {
		return nil, false, err
	}
	if exists {
		record, err := r.store.GetPlace(placeID)
		if err != nil {
			return nil, false, err
		}
		return record, false, nil
	}

	fetched, err := r.client.FetchPlace(r.serviceKey, placeID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch place %s: %w", placeID, err)
	}

	record := toRecord(fetched)
	if err := r.store.UpsertPlace(record); err != nil {
		return nil, false, err
	}

	return record, true, nil
}

// toRecord maps the Places API wire object onto a store row
func toRecord(p *foursquare.Place) *store.Place {
	record := &store.Place{
		FsqPlaceID:       p.FsqPlaceID,
		Name:             p.Name,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		Address:          p.Location.Address,
		Locality:         p.Location.Locality,
		Region:           p.Location.Region,
		Postcode:         p.Location.Postcode,
		Country:          p.Location.Country,
		FormattedAddress: p.Location.FormattedAddress,
		Website:          p.Website,
		Tel:              p.Tel,
		Email:            p.Email,
		Price:            p.Price,
		Rating:           p.Rating,
	}
	if category, ok := p.PrimaryCategory(); ok {
		record.PrimaryCategoryFsqID = category.FsqCategoryID
		record.PrimaryCategoryName = category.Name
	}
	return record
}
