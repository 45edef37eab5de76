package store

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/pavelanni/quizbank/internal/model"
)

// imports is the per-subject ledger of imported question files. It is not
// part of Collections: it is created on first import.
const imports = "imports"

// ImportRecord remembers what was imported from a source file.
type ImportRecord struct {
	Source     string           `json:"source"`
	Hash       string           `json:"hash"`
	Count      int              `json:"count"`
	ImportedAt *model.Timestamp `json:"imported_at"`
}

// RecordID returns the source the record is keyed by.
func (r ImportRecord) RecordID() string { return r.Source }

// ImportedHash returns the content hash last imported from source, or "".
func (s *Store) ImportedHash(source string) string {
	rec, ok := load[ImportRecord](s, imports).get(source)
	if !ok {
		return ""
	}
	return rec.Hash
}

// ListImports returns the import ledger in first-import order.
func (s *Store) ListImports() []ImportRecord {
	return load[ImportRecord](s, imports).all()
}

// ImportFile imports the questions in data unless the same content was
// already imported from source. It reports whether the file was skipped.
// Changed content is imported again; questions with known IDs are replaced.
func (s *Store) ImportFile(source string, data []byte) (int, bool, error) {
	hash := sha256sum(data)
	if s.ImportedHash(source) == hash {
		slog.Info("questions file unchanged, skipping", "subject", s.subject, "source", source)
		return 0, true, nil
	}

	n, err := s.ImportQuestions(data)
	if err != nil {
		return 0, false, err
	}

	ledger := load[ImportRecord](s, imports)
	ledger.put(ImportRecord{Source: source, Hash: hash, Count: n, ImportedAt: s.stamp()})
	if err := ledger.flush(s); err != nil {
		// The questions are saved; only the ledger is stale.
		slog.Error("failed to record import", "source", source, "error", err)
	}
	return n, false, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
