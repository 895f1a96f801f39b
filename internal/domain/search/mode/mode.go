package mode

// Mode is the retrieval strategy.
type Mode string

// Retrieval mode constants.
const (
	// Vector is filtered kNN over comment embeddings.
	Vector Mode = "vector"
	// Text is BM25 over the free-text field.
	Text Mode = "text"
	// Hybrid fuses Text and Vector with Reciprocal Rank Fusion.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Vector || m == Text || m == Hybrid
}
