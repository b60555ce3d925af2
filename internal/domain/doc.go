// Package domain models retail store listings collected from Azerbaijani
// supermarket chain websites.
//
// # Sources
//
// Five chains publish their branch lists, each through a different channel:
//
//	ARAZ   server-rendered Next.js page; store objects live inside
//	       self.__next_f.push([index, "payload"]) streaming chunks.
//	BRAVO  static HTML; one <article data-lat data-lng data-category> per branch.
//	OBA    static HTML; one div.js-map-coordinates per branch.
//	RAHAT  inline script defining `var locations = [[new google.maps.LatLng(..), ..], ..]`.
//	TAM    JSON REST endpoint with inconsistent field names.
//
// The chain label attached to every record is the upper-cased source name.
//
// # Coordinate Tokens
//
// Adapters never parse coordinates themselves. They record the raw text they
// found as a coordinate token together with a [CoordKind] naming its shape:
//
//	CoordPair   "40.4093,49.8671" (decimal latitude, longitude)
//	CoordQuery  a URL carrying q=40.4093,49.8671
//	CoordTile   an embed URL with tile parameters !2d<lng>!3d<lat>
//	CoordDMS    degrees-minutes-seconds text, e.g. 40°24'33.5"N 49°52'01.6"E
//
// A coordinate outside latitude [-90, 90] or longitude [-180, 180] is treated
// as absent. It is never clamped, and missing coordinates never default to 0,0.
//
// # City Labels
//
// Every record is labeled with one locality. "Bakı" is the capital label and
// absorbs the Baku districts (Nəsimi, Yasamal, ...). "Regional" marks points
// far from every reference center; "Unknown" marks rows with neither address
// nor coordinates.
//
// # Record IDs
//
// Record IDs are deterministic SHA-256 hashes of chain|name|address so that
// repeated runs upsert the same row downstream. See [StoreRecord.ID].
package domain
