// Package retrieval provides the in-memory vector index over the labor-law
// document collections. The index is built once at process start and handed
// to the agent as an immutable search service; there is no runtime indexing.
package retrieval

import (
	"encoding/json"
	"os"

	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// Document is one retrievable unit of labor-law text with source metadata.
type Document struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// collectionFile mirrors the on-disk JSON format of a document collection.
type collectionFile struct {
	Documents []struct {
		PageContent string            `json:"page_content"`
		Metadata    map[string]string `json:"metadata"`
	} `json:"documents"`
}

// LoadCollection reads one document collection file. A missing file is not
// fatal; the caller decides whether to continue with fewer collections.
func LoadCollection(path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file collectionFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(file.Documents))
	for _, d := range file.Documents {
		if d.PageContent == "" {
			continue
		}
		docs = append(docs, Document{Text: d.PageContent, Metadata: d.Metadata})
	}
	logx.Debug().Str("path", path).Int("documents", len(docs)).Msg("loaded document collection")
	return docs, nil
}

// LoadCollections loads every existing collection path and concatenates the
// documents, skipping missing files with a warning.
func LoadCollections(paths ...string) []Document {
	var all []Document
	for _, p := range paths {
		if p == "" {
			continue
		}
		docs, err := LoadCollection(p)
		if err != nil {
			logx.Warn().Err(err).Str("path", p).Msg("skipping document collection")
			continue
		}
		all = append(all, docs...)
	}
	return all
}
