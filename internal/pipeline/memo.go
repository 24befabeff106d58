package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/classmap/internal/model"
)

// DefaultMemoSize is the number of extraction results kept between runs.
const DefaultMemoSize = 4096

// extractionMemo caches successful extractions by language and content hash,
// so re-running over an unchanged tree skips parsing.
type extractionMemo struct {
	cache otter.Cache[string, []model.ClassEntity]
}

func newExtractionMemo(size int) (*extractionMemo, error) {
	cache, err := otter.MustBuilder[string, []model.ClassEntity](size).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction memo: %w", err)
	}
	return &extractionMemo{cache: cache}, nil
}

func memoKey(language string, content []byte) string {
	sum := sha256.Sum256(content)
	return language + ":" + hex.EncodeToString(sum[:])
}

func (m *extractionMemo) get(key string) ([]model.ClassEntity, bool) {
	if m == nil {
		return nil, false
	}
	return m.cache.Get(key)
}

func (m *extractionMemo) set(key string, classes []model.ClassEntity) {
	if m == nil {
		return
	}
	m.cache.Set(key, classes)
}

func (m *extractionMemo) size() int {
	if m == nil {
		return 0
	}
	return m.cache.Size()
}

func (m *extractionMemo) close() {
	if m == nil {
		return
	}
	m.cache.Close()
}
