// Package academic holds the storage and transport independent rules of the
// records domain: sheet transforms, bounds checks, due-date classification and
// the small derivations shown on dashboards.
package academic
