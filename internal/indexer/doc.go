// Package indexer chunks batches of documents concurrently.
//
// Each worker owns its own chunking engine, built through an EngineFactory,
// because syntax-tree parsers are not safe for concurrent use. Results are
// returned in input order regardless of which worker produced them.
//
// # Basic Usage
//
//	idx := indexer.New(factory, indexer.WithCache(cache), indexer.WithWorkers(4))
//
//	results, stats, err := idx.IndexDocuments(ctx, docs, &indexer.Config{
//	    Strategy: "balanced",
//	})
//
//	fmt.Printf("Chunked %d documents into %d chunks in %v\n",
//	    stats.DocumentsProcessed, stats.ChunksCreated, stats.Duration)
//
// # Failure Handling
//
// A document that fails to chunk is recorded in its Result and in
// Statistics.ErrorMessages; the rest of the batch continues. The batch as a
// whole fails only when the context is canceled or an engine cannot be
// constructed.
//
// # Caching
//
// With a storage.Cache attached, documents are looked up by content hash,
// filename and strategy before chunking. Unchanged documents are served from
// the cache and counted in Statistics.DocumentsCached.
//
// # Concurrency Guard
//
// BatchLock lets a caller such as the MCP server reject a second batch
// while one is running instead of queueing it.
package indexer
