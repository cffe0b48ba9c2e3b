// Package services implements the provider adapters that turn remote music sources into [models.Track] values.
//
// # Capabilities
//
// Adapters are polymorphic over two capabilities:
//   - [LinkResolver] : local parsing of pasted links ([YouTubeLinkService])
//   - [Searcher] : query and browse against a remote catalog ([CatalogService], [YandexService])
//
// Every adapter reports the [models.ProviderKind] it produces, which later decides the playback mechanism.
//
// # Catalog
//
// [CatalogService] speaks the iTunes Search API shape: GET <endpoint>?term=<q>&entity=song&limit=<n>.
// A missing or empty results array is zero matches, reported as [shared.ErrEmptyResult].
//
// # Yandex Music
//
// [YandexService] authenticates with an [oauth2.StaticTokenSource] using the "OAuth" token type, so requests carry
// "Authorization: OAuth <token>". Search reads result.tracks.results; the chart reads result.chart.tracks[].track.
//
// # Error Handling
//
// Adapters use typed errors from the shared package, classified by [Classify]:
//   - [shared.ErrInvalidLink] : input matched no known link shape
//   - [shared.ErrNetworkFailure] : transport, status or decode failure
//   - [shared.ErrEmptyResult] : the provider answered with zero usable items
//
// [APIService] holds the shared HTTP plumbing, including the optional client-side rate limit.
package services
