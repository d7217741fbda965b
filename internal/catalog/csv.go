package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"edugrant-workers/internal/models"
)

// CSVSource reads a local export of the catalog. The header row names the fields;
// every cell stays a string and blank cells stay "".
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) FetchCatalog(ctx context.Context) ([]models.Offer, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog csv: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

// ReadCSV parses a catalog export from r.
func ReadCSV(ctx context.Context, r io.Reader) ([]models.Offer, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []models.Offer{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	offers := []models.Offer{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row %d: %w", len(offers)+2, err)
		}

		offer := make(models.Offer, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(record) {
				offer[col] = record[i]
			} else {
				offer[col] = ""
			}
		}
		offers = append(offers, offer)
	}
	return offers, nil
}
