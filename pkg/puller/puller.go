package puller

import (
	"fmt"
	"time"

	"fsqpull/pkg/config"
	"fsqpull/pkg/foursquare"
	"fsqpull/pkg/logger"
	"fsqpull/pkg/places"
	"fsqpull/pkg/store"
)

// Terminal conditions of the page loop
const (
	stopBoundary     = "boundary_reached"
	stopExhausted    = "exhausted"
	stopFetchFailure = "fetch_failure"
)

// Puller drives the incremental synchronization of one user's check-in
// history: offset pagination newest-first, watermark-based resumption,
// place resolution per item, and idempotent persistence.
type Puller struct {
	cfg      *config.Config
	client   *foursquare.Client
	store    *store.Store
	resolver *places.Resolver
	logger   logger.Logger
}

// New creates a sync orchestrator
func New(cfg *config.Config, client *foursquare.Client, st *store.Store, resolver *places.Resolver, log logger.Logger) *Puller {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Puller{
		cfg:      cfg,
		client:   client,
		store:    st,
		resolver: resolver,
		logger:   log,
	}
}

// Pull runs one synchronization for the given user. The run always
// terminates and always reports partial statistics: page fetch failures end
// the run after retries, item-level failures skip the item only, and the
// watermark advances only past timestamps of durably persisted check-ins.
func (p *Puller) Pull(userID, accessToken string) (*Stats, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	start := time.Now()
	startRequests := p.client.Requests()
	stats := &Stats{}

	watermark, err := p.store.GetWatermark(userID)
	if err != nil {
		// A full re-pull is harmless: check-ins dedup by identifier.
		p.logger.WithError(err).Warn("failed to read watermark, pulling from the beginning")
		watermark = 0
	}
	highest := watermark

	p.logger.InfoWithFields("starting check-in pull", map[string]interface{}{
		"user_id":   userID,
		"watermark": watermark,
	})

	pageSize := p.cfg.Sync.PageSize
	offset := 0
	reason := stopExhausted

pages:
	for {
		envelope, err := p.client.FetchCheckins(accessToken, pageSize, offset)
		if err != nil {
			p.logger.WithError(err).Error("failed to fetch check-ins page, aborting pull")
			reason = stopFetchFailure
			break
		}

		items := envelope.Response.Checkins.Items
		if len(items) == 0 {
			// Also covers malformed envelopes: missing keys decode to no items.
			reason = stopExhausted
			break
		}

		for i := range items {
			item := &items[i]

			if watermark > 0 && item.CreatedAt <= watermark {
				p.logger.InfoWithFields("reached already-pulled check-in", map[string]interface{}{
					"created_at": item.CreatedAt,
					"watermark":  watermark,
				})
				reason = stopBoundary
				break pages
			}

			if item.Venue.ID != "" {
				if _, fetched, err := p.resolver.Resolve(item.Venue.ID); err != nil {
					// Proceed without place enrichment for this item.
					p.logger.WithError(err).WithField("place_id", item.Venue.ID).
						Warn("place resolution failed")
				} else if fetched {
					stats.PlacesPulled++
				}
			}

			inserted, err := p.store.InsertCheckinIfAbsent(toRecord(item, userID))
			if err != nil {
				p.logger.WithError(err).WithField("checkin_id", item.ID).
					Error("failed to insert check-in")
				continue
			}
			if inserted {
				stats.CheckinsPulled++
				if item.CreatedAt > highest {
					highest = item.CreatedAt
				}
			}
		}

		offset += len(items)
		if len(items) < pageSize {
			reason = stopExhausted
			break
		}
	}

	if highest > watermark {
		if err := p.store.AdvanceWatermark(userID, highest); err != nil {
			p.logger.WithError(err).Error("failed to advance watermark")
		}
	}

	stats.APIRequests = p.client.Requests() - startRequests
	stats.Duration = time.Since(start)

	p.logger.InfoWithFields("pull complete", map[string]interface{}{
		"user_id":         userID,
		"stop_reason":     reason,
		"checkins_pulled": stats.CheckinsPulled,
		"places_pulled":   stats.PlacesPulled,
		"api_requests":    stats.APIRequests,
		"duration":        stats.Duration,
	})

	return stats, nil
}

// toRecord maps a v2 check-in wire item onto a store row
func toRecord(c *foursquare.Checkin, userID string) *store.Checkin {
	return &store.Checkin{
		CheckinID:        c.ID,
		FoursquareUserID: userID,
		PlaceFsqID:       c.Venue.ID,
		CreatedAt:        c.CreatedAt,
		Type:             c.Type,
		Shout:            c.Shout,
		Private:          c.Private,
		Visibility:       c.Visibility,
		IsMayor:          c.IsMayor,
		Liked:            c.Like,
		CommentsCount:    c.Comments.Count,
		LikesCount:       c.Likes.Count,
		PhotosCount:      c.Photos.Count,
		SourceName:       c.Source.Name,
		SourceURL:        c.Source.URL,
		TimeZoneOffset:   c.TimeZoneOffset,
	}
}
