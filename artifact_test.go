package ragindex

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkRecordsRoundTrip(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "corpus.jsonl")

	input := `{"doc_id":"doc-1","contents":"first chunk","path":"a.md"}

{"doc_id":"doc-2","contents":"second chunk","metadata":{"lang":"en"}}
`

	if err := os.WriteFile(path, []byte(input), 0644); err != nil {
		assert.Fail(err.Error())
		return
	}

	chunks, err := ReadChunkRecords(path)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(chunks, 2, "blank lines are skipped")
	assert.Equal("doc-1", chunks[0].DocID)
	assert.Equal("a.md", chunks[0].Path)
	assert.Equal("en", chunks[1].Metadata["lang"])
}

func TestWriteSummary(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "index_summary.csv")

	summaries := []RunSummary{
		{
			Filename:      "index_0.jsonl",
			ModuleName:    "vectordb_index",
			ModuleParams:  map[string]any{"embedding_model": "mock"},
			ExecutionTime: 0.25,
		},
		{
			ModuleName: "vectordb_index",
			Error:      "configuration error: unsupported index type: bm25",
		},
	}

	if err := WriteSummary(path, summaries); err != nil {
		assert.Fail(err.Error())
		return
	}

	f, err := os.Open(path)
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(records, 3, "header plus one row per config")
	assert.Equal("index_0.jsonl", records[1][0])
	assert.Contains(records[1][2], "mock")
	assert.Equal("0.25", records[1][3])
	assert.NotEmpty(records[2][4], "failed config keeps its error message")
}
