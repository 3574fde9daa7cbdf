package usecases

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
)

// Fingerprint identifies a document set by its ordered (name, size) pairs.
// Content is not hashed, and reordering the same files changes the result.
func Fingerprint(docs entities.DocumentSet) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = fmt.Sprintf("%s-%d", doc.Name, doc.Size)
	}
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, "|")), 10)
}
