package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// MaxBatchDocuments bounds a chunk_documents call
const MaxBatchDocuments = 256

// chunkDocumentTool returns the tool definition for chunk_document
func chunkDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_document",
		Description: "Split one text document into ordered, quality-scored chunks for semantic indexing",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Full document text",
				},
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Source filename; its extension selects the code language and whether headings are parsed",
				},
				"strategy": map[string]interface{}{
					"type":        "string",
					"description": "Chunking strategy name (see list_strategies). Unknown names use balanced",
				},
			},
			Required: []string{"text"},
		},
	}
}

// chunkDocumentsTool returns the tool definition for chunk_documents
func chunkDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_documents",
		Description: "Chunk a batch of documents concurrently; results are returned in input order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"documents": map[string]interface{}{
					"type":        "array",
					"description": "Documents to chunk",
					"minItems":    1,
					"maxItems":    MaxBatchDocuments,
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"filename": map[string]interface{}{"type": "string"},
							"text":     map[string]interface{}{"type": "string"},
						},
						"required": []string{"text"},
					},
				},
				"strategy": map[string]interface{}{
					"type":        "string",
					"description": "Chunking strategy name applied to every document",
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Concurrent engines (1-64)",
					"minimum":     1,
					"maximum":     64,
				},
			},
			Required: []string{"documents"},
		},
	}
}

// listStrategiesTool returns the tool definition for list_strategies
func listStrategiesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_strategies",
		Description: "List the configured chunking strategies and their token budgets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getCapabilitiesTool returns the tool definition for get_capabilities
func getCapabilitiesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_capabilities",
		Description: "Report which optional engines are available and cache statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
