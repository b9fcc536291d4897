// Package acl provides the Anti-Corruption Layer between the gateway and the
// upstream price-fetcher service.
//
// # What is an Anti-Corruption Layer?
//
// The Anti-Corruption Layer (ACL) is a pattern from Domain-Driven Design that
// protects your domain model from external service representations. It acts as
// a translation boundary, ensuring that:
//
//   - External DTOs never leak into your domain
//   - External failures surface as classified domain errors
//   - External payloads are checked before they reach the domain
//
// # Package Components
//
//   - [BaseAdapter]: Embeddable struct that issues GETs through [clients.Client]
//   - [DecodeObject]: Strict JSON object decoder that fails with a data format error
//   - [PriceFetcherClient]: The [ports.GameCatalog] implementation
//
// # Error Handling Strategy
//
// Transport and status failures are classified once by [clients.Client] and
// returned unchanged. The ACL adds only one kind of its own: a body that is not
// a JSON object becomes a [domain.DataFormatError].
//
// The upstream contract consumed:
//
//	GET {base}/game-ids?title=<q>&result_num=<n>  ->  {"games": [...], "count": n}
//	GET {base}/prices?id=<uuid>                   ->  {...}
//	GET {base}/health                             ->  2xx when healthy
package acl
