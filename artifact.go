package ragindex

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// ReadChunkRecords loads a chunked corpus from a JSON Lines file, one
// ChunkRecord per line. Blank lines are skipped; an empty file is a
// valid, empty corpus.
func ReadChunkRecords(path string) ([]ChunkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunks := make([]ChunkRecord, 0)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++

		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var chunk ChunkRecord
		if err := json.Unmarshal(data, &chunk); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}

		chunks = append(chunks, chunk)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return chunks, nil
}

// WriteResultRows persists the per-config result artifact as JSON
// Lines. Zero rows produce an empty file, not an error.
func WriteResultRows(path string, rows []IndexResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)

	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(&row); err != nil {
			f.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// WriteSummary persists the run summary as CSV, one row per executed
// config. Module params are JSON-encoded into their cell.
func WriteSummary(path string, summaries []RunSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)

	header := []string{"filename", "module_name", "module_params", "execution_time", "error"}
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}

	for _, summary := range summaries {
		params, err := json.Marshal(summary.ModuleParams)
		if err != nil {
			f.Close()
			return err
		}

		record := []string{
			summary.Filename,
			summary.ModuleName,
			string(params),
			strconv.FormatFloat(summary.ExecutionTime, 'f', -1, 64),
			summary.Error,
		}

		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
