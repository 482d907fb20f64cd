package source

import (
	"fmt"
	"os"

	"github.com/segmentio/parquet-go"
)

// Info is what the file footer says about a local file
type Info struct {
	Size      int64
	Rows      int64
	RowGroups int
	Columns   []string
}

// Inspect reads the footer of a local Parquet file. Failures from the footer
// itself are reported as an invalid parquet file.
func Inspect(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return Info{}, fmt.Errorf("invalid parquet file %s: %w", path, err)
	}

	fields := pqFile.Schema().Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name()
	}

	return Info{
		Size:      stat.Size(),
		Rows:      pqFile.NumRows(),
		RowGroups: len(pqFile.RowGroups()),
		Columns:   columns,
	}, nil
}
