// Package catalogservice owns award categories and their contestants.
//
// It serves the voter-facing listings, with contestant vote counts read
// through a short-lived cache, and seeds the catalog from a YAML file. The
// counters themselves belong to the vote engine.
package catalogservice
