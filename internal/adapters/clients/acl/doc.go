// Package acl is the anti-corruption layer between the remote quote service
// and the domain.
//
// The remote speaks a JSONPlaceholder-style "posts" contract: records carry a
// numeric id plus a title and body, and nothing else the widget cares about.
// Translation happens here so that no remote DTO, status code or transport
// error ever reaches the domain:
//
//   - posts become [domain.Quote] values through [domain.FromRemote]
//   - records that fail domain validation are dropped, never propagated
//   - every fetch failure becomes a [domain.FetchError], which satisfies
//     errors.Is(err, domain.ErrUnavailable)
//   - submission failures become [domain.UnavailableError] or
//     [domain.ValidationError] depending on the status
package acl
