// Package types provides shared type definitions for the FAIR data search
// engine.
//
// This package defines the domain types used across components: the
// metadata Record describing an indexed scientific data file, companion
// document records produced during discovery, search results, and the
// error taxonomy. Components communicate through these types only.
//
// # Core Types
//
// Record holds everything known about one data file at index time:
//
//	rec := &types.Record{
//	    Filepath: "/data/ocean_temp_2023.nc",
//	    Format:   types.FormatNetCDF,
//	    FileSize: 48213,
//	}
//
// CompanionRecord describes a document (README, citation, script) judged
// relevant to a data file. Companions are transient: they are folded into
// the record's searchable text and only the derived text survives in the
// index.
//
// SearchResult pairs a Record with its similarity score and the ordinal
// position of the matching vector inside the index.
package types
