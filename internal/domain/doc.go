// Package domain models music-artist records and the location-aware search
// path over them.
//
// # Data Source
//
// Artist records originate from a MusicBrainz/AudioDB pull, curated into a
// genre-keyed JSON file and seeded into the document store (see cmd/seed).
// User-registered artists arrive through the REST API and share the same
// shape. A record carries a free-text location string ("Seattle, Washington,
// United States") and, when known, a WGS-84 coordinate pair. Coordinates are
// backfilled out of band by cmd/backfill, so any record may lack them.
//
// # Location Search
//
// A search request either names explicit coordinates or a free-text location.
// When a positive radius (in miles) is supplied the engine works spatially:
// it resolves the location to coordinates if needed, scores every candidate
// with the haversine distance, and keeps those inside the radius. Candidates
// without coordinates degrade per record to case-insensitive substring
// matching against their location string. When geocoding fails entirely the
// whole request degrades the same way. A failed geocode never aborts an
// otherwise servable request; the degradation is logged and counted instead.
//
// # Geocoding
//
// [Resolver] wraps a single external provider (Nominatim in production)
// behind the [Geocoder] interface. The provider handle is built lazily
// exactly once per process and reused for its lifetime. Timeouts are retried
// with linear backoff (delay, 2×delay, ...); service errors and empty
// results are not. All failure modes collapse to a nil coordinate.
package domain
