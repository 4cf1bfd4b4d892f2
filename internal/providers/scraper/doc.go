// Package scraper turns serialised page HTML into structured data for the
// agent.
//
// This package is organized into specialized modules:
//   - load: document loading with charset handling and size limits
//   - context: the PageContext snapshot (links, buttons, forms, headings, images, meta)
//   - extract: extraction modes used by the extractContent action
//   - tables: XPath-based table extraction
//   - structured: meta, Open Graph, JSON-LD and list extraction
//
// Built on specialized libraries:
//   - goquery: jQuery-like CSS selectors
//   - htmlquery: XPath support for HTML
//   - bluemonday: summary sanitization
//   - chardet + x/net/html/charset: encoding detection for raw bytes
//
// Every result is capped by Limits so payloads handed to the language model
// stay bounded.
package scraper
