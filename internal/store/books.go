package store

import (
	"errors"
	"os"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// LoadBooks reads the book dataset. Missing file means no books yet.
func LoadBooks(path string) ([]types.BookRecord, error) {
	books, err := ReadJSON[[]types.BookRecord](path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return books, nil
}

// SaveBooks persists the book dataset atomically.
func SaveBooks(path string, books []types.BookRecord) error {
	return WriteJSON(path, books)
}

// SaveGraph persists the graph dataset. Unlike the enriched store the graph
// is rebuilt wholesale on every run, since relationships shift as threads
// are added.
func SaveGraph(path string, nodes []types.GraphNode) error {
	return WriteJSON(path, nodes)
}
