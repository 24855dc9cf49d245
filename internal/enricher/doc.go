// Package enricher attaches derived metadata to raw chunks: token and
// character counts, a deterministic chunk id, a short content hash, sparse
// lexical features, modal flags, routing tags and search keywords.
package enricher
