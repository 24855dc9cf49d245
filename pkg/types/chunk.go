package types

import "fmt"

// ModalHint represents the content shape of a block or chunk
type ModalHint string

const (
	ModalCode           ModalHint = "code"
	ModalTable          ModalHint = "table"
	ModalList           ModalHint = "list"
	ModalStructuredData ModalHint = "structured_data"
	ModalProse          ModalHint = "prose"
)

// Validate checks if the modal hint is known
func (m ModalHint) Validate() error {
	switch m {
	case ModalCode, ModalTable, ModalList, ModalStructuredData, ModalProse:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModalHint, string(m))
	}
}

// BackendName identifies the segmentation backend that produced a chunk
type BackendName string

const (
	BackendStructural  BackendName = "structural"
	BackendTokenBudget BackendName = "token_budget"
	BackendSyntaxTree  BackendName = "syntax_tree"
)

// ContentFlags records which content shapes appear anywhere in a chunk
type ContentFlags struct {
	HasCode           bool `json:"has_code"`
	HasTable          bool `json:"has_table"`
	HasList           bool `json:"has_list"`
	HasStructuredData bool `json:"has_structured_data"`
	HasHeading        bool `json:"has_heading"`
}

// SparseFeature is one frequency-weighted lexical term
type SparseFeature struct {
	Term   string  `json:"term"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// RawChunk is the output of a segmentation backend
type RawChunk struct {
	Text        string
	SectionPath []string
	Heading     string
	StartChar   int
	EndChar     int
	ChunkIndex  int // Monotonic within a document
	Backend     BackendName
	Language    string
}

// ValidateContent checks text and offsets of a raw chunk
func (c *RawChunk) ValidateContent() error {
	if c.Text == "" {
		return ErrEmptyContent
	}
	if c.StartChar < 0 || c.EndChar <= c.StartChar {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidOffsets, c.StartChar, c.EndChar)
	}
	return nil
}

// EnrichedChunk is a raw chunk with derived metadata attached
type EnrichedChunk struct {
	RawChunk

	ChunkID         string
	SourceFile      string
	TokenCount      int
	CharCount       int
	ContentHash     string
	SparseFeatures  []SparseFeature
	ModalHint       ModalHint
	ContentFlags    ContentFlags
	ContentType     string
	CollectionHints []string
	SearchKeywords  []string
}

// ScoredChunk is an enriched chunk with quality scores
type ScoredChunk struct {
	EnrichedChunk

	SemanticScore    float64
	StructuralScore  float64
	RetrievalQuality float64
	Overall          float64
	QualityFallback  bool
	QualityNotes     string
}

// ValidateScores checks that every score lies in [0, 1]
func (c *ScoredChunk) ValidateScores() error {
	for name, v := range map[string]float64{
		"semantic":   c.SemanticScore,
		"structural": c.StructuralScore,
		"retrieval":  c.RetrievalQuality,
		"overall":    c.Overall,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%f", ErrInvalidScore, name, v)
		}
	}
	return nil
}

// Metadata is the serialized metadata of an output chunk. Field names are
// part of the storage contract and must not change.
type Metadata struct {
	ChunkID          string          `json:"chunk_id"`
	SourceFile       string          `json:"source_file"`
	SectionPath      []string        `json:"section_path"`
	HeadingText      string          `json:"heading_text"`
	TokenCount       int             `json:"token_count"`
	CharCount        int             `json:"char_count"`
	StartChar        int             `json:"start_char"`
	EndChar          int             `json:"end_char"`
	ChunkIndex       int             `json:"chunk_index"`
	ChunkingStrategy string          `json:"chunking_strategy"`
	ContentType      string          `json:"content_type"`
	Backend          BackendName     `json:"backend"`
	Language         string          `json:"language,omitempty"`
	ContentHash      string          `json:"content_hash"`
	SemanticScore    float64         `json:"semantic_score"`
	StructuralScore  float64         `json:"structural_score"`
	RetrievalQuality float64         `json:"retrieval_quality"`
	OverallQuality   float64         `json:"overall_quality"`
	SparseFeatures   []SparseFeature `json:"sparse_features"`
	ModalHint        ModalHint       `json:"modal_hint"`
	ContentFlags     ContentFlags    `json:"content_flags"`
	SearchKeywords   []string        `json:"search_keywords"`
	CollectionHints  []string        `json:"collection_hints"`
	QualityFallback  bool            `json:"quality_fallback,omitempty"`
	QualityNotes     string          `json:"quality_notes,omitempty"`
}

// Chunk is the engine's atomic output unit
type Chunk struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// NewChunk flattens a scored chunk into the output shape
func NewChunk(sc *ScoredChunk, strategy string) Chunk {
	path := sc.SectionPath
	if path == nil {
		path = []string{}
	}
	return Chunk{
		Text: sc.Text,
		Metadata: Metadata{
			ChunkID:          sc.ChunkID,
			SourceFile:       sc.SourceFile,
			SectionPath:      path,
			HeadingText:      sc.Heading,
			TokenCount:       sc.TokenCount,
			CharCount:        sc.CharCount,
			StartChar:        sc.StartChar,
			EndChar:          sc.EndChar,
			ChunkIndex:       sc.ChunkIndex,
			ChunkingStrategy: strategy,
			ContentType:      sc.ContentType,
			Backend:          sc.Backend,
			Language:         sc.Language,
			ContentHash:      sc.ContentHash,
			SemanticScore:    sc.SemanticScore,
			StructuralScore:  sc.StructuralScore,
			RetrievalQuality: sc.RetrievalQuality,
			OverallQuality:   sc.Overall,
			SparseFeatures:   sc.SparseFeatures,
			ModalHint:        sc.ModalHint,
			ContentFlags:     sc.ContentFlags,
			SearchKeywords:   sc.SearchKeywords,
			CollectionHints:  sc.CollectionHints,
			QualityFallback:  sc.QualityFallback,
			QualityNotes:     sc.QualityNotes,
		},
	}
}

// Validate performs comprehensive validation of an output chunk against the
// length of its source document in characters
func (c *Chunk) Validate(docChars int) error {
	if c.Text == "" {
		return ErrEmptyContent
	}
	if c.Metadata.ChunkID == "" {
		return ErrMissingChunkID
	}
	m := c.Metadata
	if m.StartChar < 0 || m.StartChar >= m.EndChar || m.EndChar > docChars {
		return fmt.Errorf("%w: [%d, %d) in document of %d characters",
			ErrInvalidOffsets, m.StartChar, m.EndChar, docChars)
	}
	if err := m.ModalHint.Validate(); err != nil {
		return err
	}
	scores := []float64{m.SemanticScore, m.StructuralScore, m.RetrievalQuality, m.OverallQuality}
	for _, s := range scores {
		if s < 0 || s > 1 {
			return fmt.Errorf("%w: chunk %s", ErrInvalidScore, m.ChunkID)
		}
	}
	return nil
}
