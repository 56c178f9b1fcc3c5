// Package store persists the snake game's high score and finished runs.
//
// Three implementations satisfy service.RecordStore:
//
//   - FileStore writes high_score.json and runs.json in a data directory.
//     Files are replaced through a temp file and rename.
//   - SQLiteStore uses modernc.org/sqlite with embedded migrations and keeps
//     the high score in a single "global" slot.
//   - MemoryStore keeps everything in process, for tests and throwaway games.
//
// The high score file follows the historical format:
//
//	{"high_score": 12, "when": "2024-05-01T12:00:00Z"}
//
// A file holding only an integer is also read. A missing record is
// ErrNoRecord; unparseable data or a negative score is ErrCorruptRecord.
//
// Usage:
//
//	records, err := store.Open(store.KindSQLite, "data")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer records.Close()
package store
