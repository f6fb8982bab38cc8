// Package collection implements the list view engine shared by every dashboard
// collection: free-text search, equality filters, stable sorting and paging over
// an in-memory slice of typed records.
//
// The pipeline is pure. Compute never mutates its source and is total over any
// State; parameter validation happens in the State setters and in ParseParams.
package collection
