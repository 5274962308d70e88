// Package spewder crawls a website from a single seed URL, follows in-scope
// links up to a bounded depth, fetches each page exactly once and hands the
// collected pages to a writer that consolidates them into one artifact.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, rod/, sqlite/). The crawl
// engine itself lives in crawl/.
package spewder
