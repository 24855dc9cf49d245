// Package mcp implements the Model Context Protocol (MCP) server for docchunk.
//
// The MCP server exposes four tools:
//   - chunk_document: Split one document into quality-scored chunks
//   - chunk_documents: Chunk a batch of documents concurrently
//   - list_strategies: List the configured chunking strategies
//   - get_capabilities: Report optional engines and cache statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr; stdout is reserved for protocol messages.
//
// # Tool: chunk_document
//
//	Request:
//	{
//	  "text": "# Guide\n\nInstall the tool...",
//	  "filename": "guide.md",
//	  "strategy": "balanced"
//	}
//
//	Response:
//	{
//	  "filename": "guide.md",
//	  "strategy": "balanced",
//	  "chunk_count": 2,
//	  "cached": false,
//	  "chunks": [{"text": "...", "metadata": {...}}]
//	}
//
// Whitespace-only text yields an empty chunk list, not an error.
//
// # Tool: chunk_documents
//
//	Request:
//	{
//	  "documents": [{"filename": "a.md", "text": "..."}, ...],
//	  "strategy": "precise",
//	  "workers": 4
//	}
//
// Results keep input order. A document that fails carries an "error" field
// while the rest of the batch completes. Only one batch runs at a time; a
// concurrent call fails with ErrorCodeIndexingInProgress.
//
// # Error Codes
//
//   - -32602: Invalid parameters
//   - -32603: Internal error
//   - -32002: Batch already in progress
//   - -32004: Text parameter missing
package mcp
