// Package parse turns loosely formatted backend prose into typed
// recommendation records.
//
// The pipeline is Normalize → SplitSections → SplitItems → field and list
// extraction → Assemble. Every step is tolerant: a structural marker that
// cannot be found degrades to an empty result instead of failing the whole
// response, and field extraction walks an ordered list of named rules where
// the first match wins.
package parse
