// Package records tracks the trust classification attached to known steam
// ids. Curated records are persisted through the sqlite store, records
// imported from third party lists are held in memory only.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/leighmacdonald/tf-sentry/internal/encoding"
	"github.com/leighmacdonald/tf-sentry/internal/sid"
	"github.com/leighmacdonald/tf-sentry/internal/store"
)

var (
	ErrUnknownKind  = errors.New("unknown record kind")
	ErrRecordImport = errors.New("failed to import records")
	ErrRecordExport = errors.New("failed to export records")
)

// Kind is the trust label attached to a steam id.
type Kind string

const (
	KindPlayer     Kind = "Player"
	KindBot        Kind = "Bot"
	KindCheater    Kind = "Cheater"
	KindSuspicious Kind = "Suspicious"
)

func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindPlayer, KindBot, KindCheater, KindSuspicious:
		return Kind(value), nil
	default:
		return KindPlayer, ErrUnknownKind
	}
}

// Record attaches a classification and free-form notes to a steam id. The
// id is kept in the bare triplet form ("U:1:123").
type Record struct {
	SteamID string `json:"steamid"`
	Kind    Kind   `json:"player_type"`
	Notes   string `json:"notes"`
}

// Store holds both record sets and the name pattern list. It is not safe
// for concurrent use, callers must serialize access themselves.
type Store struct {
	queries  *store.Queries
	curated  map[string]Record
	external map[string]Record
	patterns patternList
}

// New loads any previously persisted records from the database connection.
// A nil queries value disables persistence, useful for throwaway stores.
func New(ctx context.Context, queries *store.Queries) (*Store, error) {
	recordStore := &Store{
		queries:  queries,
		curated:  map[string]Record{},
		external: map[string]Record{},
	}

	if queries != nil {
		rows, errRows := queries.Players(ctx)
		if errRows != nil {
			return nil, errRows
		}
		for _, row := range rows {
			kind, errKind := ParseKind(row.Kind)
			if errKind != nil {
				slog.Error("Skipping stored record with unknown kind",
					slog.String("steam_id", row.SteamID), slog.String("kind", row.Kind))

				continue
			}
			recordStore.curated[row.SteamID] = Record{SteamID: row.SteamID, Kind: kind, Notes: row.Notes}
		}
	}

	return recordStore, nil
}

// Lookup finds the record for a steam id, curated records taking
// precedence over externally imported ones.
func (s *Store) Lookup(steamID string) (Record, bool) {
	if record, found := s.curated[steamID]; found {
		return record, true
	}
	if record, found := s.external[steamID]; found {
		return record, true
	}

	return Record{}, false
}

// Upsert saves a record into the curated set. A record carrying the
// default classification and no notes holds no information, so inserting
// one removes any existing entry instead.
func (s *Store) Upsert(ctx context.Context, record Record) error {
	if record.Kind == KindPlayer && record.Notes == "" {
		delete(s.curated, record.SteamID)
		if s.queries != nil {
			return s.queries.PlayerDelete(ctx, record.SteamID)
		}

		return nil
	}

	s.curated[record.SteamID] = record
	if s.queries != nil {
		now := time.Now()

		return s.queries.PlayerSave(ctx, store.PlayerRow{
			SteamID:   record.SteamID,
			Kind:      string(record.Kind),
			Notes:     record.Notes,
			CreatedOn: now,
			UpdatedOn: now,
		})
	}

	return nil
}

// Curated returns the curated records in no particular order.
func (s *Store) Curated() []Record {
	out := make([]Record, 0, len(s.curated))
	for _, record := range s.curated {
		out = append(out, record)
	}

	return out
}

// ImportRecords loads a JSON record list, such as one produced by
// ExportRecords, into the curated set. Entries with an empty id are
// skipped, entries with an unknown kind are logged and skipped. One bad
// entry never aborts the rest of the batch.
func (s *Store) ImportRecords(ctx context.Context, reader io.Reader) (int, error) {
	type rawRecord struct {
		SteamID    string `json:"steamid"`
		PlayerType string `json:"player_type"`
		Notes      string `json:"notes"`
	}

	entries, errDecode := encoding.UnmarshalJSON[[]rawRecord](reader)
	if errDecode != nil {
		return 0, errors.Join(errDecode, ErrRecordImport)
	}

	imported := 0
	for _, entry := range entries {
		if entry.SteamID == "" {
			continue
		}

		kind, errKind := ParseKind(entry.PlayerType)
		if errKind != nil {
			slog.Error("Unexpected record kind", slog.String("kind", entry.PlayerType),
				slog.String("steam_id", entry.SteamID))

			continue
		}

		if errUpsert := s.Upsert(ctx, Record{SteamID: entry.SteamID, Kind: kind, Notes: entry.Notes}); errUpsert != nil {
			return imported, errors.Join(errUpsert, ErrRecordImport)
		}
		imported++
	}

	return imported, nil
}

// ImportRecordsFile is ImportRecords reading from a file path.
func (s *Store) ImportRecordsFile(ctx context.Context, path string) (int, error) {
	file, errOpen := os.Open(path)
	if errOpen != nil {
		return 0, errors.Join(errOpen, ErrRecordImport)
	}
	defer file.Close()

	return s.ImportRecords(ctx, file)
}

// ExportRecords writes the curated record set as a JSON list.
func (s *Store) ExportRecords(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.Curated()); err != nil {
		return errors.Join(err, ErrRecordExport)
	}

	return nil
}

// ExportRecordsFile is ExportRecords writing to a file path.
func (s *Store) ExportRecordsFile(path string) error {
	file, errCreate := os.Create(path)
	if errCreate != nil {
		return errors.Join(errCreate, ErrRecordExport)
	}
	defer file.Close()

	return s.ExportRecords(file)
}

// ImportText scans an arbitrary text blob for steam ids in either textual
// form and records every id not already present in the target set with the
// given kind and a provenance note. Returns the number of new records.
func (s *Store) ImportText(ctx context.Context, contents string, source string, asKind Kind, curated bool) (int, error) {
	target := s.external
	if curated {
		target = s.curated
	}

	imported := 0
	for _, steamID := range scanIDs(contents) {
		if _, exists := target[steamID]; exists {
			continue
		}

		record := Record{
			SteamID: steamID,
			Kind:    asKind,
			Notes:   fmt.Sprintf("Imported from %s as %s", source, asKind),
		}

		if curated {
			if errUpsert := s.Upsert(ctx, record); errUpsert != nil {
				return imported, errors.Join(errUpsert, ErrRecordImport)
			}
		} else {
			s.external[steamID] = record
		}
		imported++
	}

	return imported, nil
}

// ImportTextFile is ImportText reading from a file path, using the path as
// the provenance source.
func (s *Store) ImportTextFile(ctx context.Context, path string, asKind Kind, curated bool) (int, error) {
	contents, errRead := os.ReadFile(path)
	if errRead != nil {
		return 0, errors.Join(errRead, ErrRecordImport)
	}

	return s.ImportText(ctx, string(contents), path, asKind, curated)
}

func scanIDs(contents string) []string {
	var ids []string
	for _, steamID := range sid.Scan(contents) {
		ids = append(ids, sid.Format32(steamID))
	}

	return ids
}
