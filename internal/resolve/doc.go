// Package resolve maps numeric POSIX uids to a login, a full name and a
// primary group name.
//
// A Resolver consults its Store first. On a miss the Executor binds to the
// directory, searches for the account and then for its primary group, and
// the Resolver stores whatever came back, including placeholder triples of
// failed lookups. The Status of a Result reports how far the query got.
package resolve
