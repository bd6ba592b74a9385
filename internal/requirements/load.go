// Package requirements loads the ordered requirement list that drives a bid
// generation run. The contract is frozen at ingestion: records are validated
// here and immutable afterward.
package requirements

import (
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Hejaii/BidGenerate/internal/types"
)

//go:embed schema.json
var requirementSchema string

var validate = validator.New()

// requirementList is the JSON document shape
type requirementList struct {
	Requirements []types.Requirement `json:"requirements"`
}

// Load reads a requirement list from a JSON or CSV file, validates every
// record, and returns them with order indexes normalized.
func Load(path string) ([]types.Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements file %s: %w", path, err)
	}

	var reqs []types.Requirement
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		reqs, err = parseJSON(data)
	case ".csv":
		reqs, err = parseCSV(data)
	default:
		return nil, fmt.Errorf("unsupported requirements format %q (want .json or .csv)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse requirements file %s: %w", path, err)
	}

	normalize(reqs)

	for i := range reqs {
		if err := validate.Struct(&reqs[i]); err != nil {
			return nil, fmt.Errorf("invalid requirement %s: %w", reqs[i].ID, err)
		}
	}

	return reqs, nil
}

// parseJSON validates the document against the embedded JSON Schema before
// decoding it.
func parseJSON(data []byte) ([]types.Requirement, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(requirementSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		sb.WriteString("schema validation failed:")
		for _, desc := range result.Errors() {
			fmt.Fprintf(&sb, "\n  %s: %s", desc.Field(), desc.Description())
		}
		return nil, fmt.Errorf("%s", sb.String())
	}

	var list requirementList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list.Requirements, nil
}

// parseCSV reads a header-addressed CSV requirement list
func parseCSV(data []byte) ([]types.Requirement, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	reqs := make([]types.Requirement, 0, len(rows)-1)
	for _, row := range rows[1:] {
		req := types.Requirement{
			ID:             field(row, "id"),
			Title:          field(row, "title"),
			BodyText:       field(row, "body_text"),
			Classification: types.Classification(field(row, "classification")),
		}
		if v := field(row, "order_index"); v != "" {
			req.OrderIndex, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("bad order_index %q for requirement %s", v, req.ID)
			}
		}
		if v := field(row, "page_hint"); v != "" {
			req.PageHint, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("bad page_hint %q for requirement %s", v, req.ID)
			}
		}
		if v := field(row, "keywords"); v != "" {
			for _, kw := range strings.Split(v, ";") {
				if kw = strings.TrimSpace(kw); kw != "" {
					req.Keywords = append(req.Keywords, kw)
				}
			}
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// normalize fills defaults the input format allows to omit: classification
// defaults to generate, and when no record carries an explicit order index the
// file order becomes the document order.
func normalize(reqs []types.Requirement) {
	allZero := true
	for i := range reqs {
		if reqs[i].Classification == "" {
			reqs[i].Classification = types.ClassificationGenerate
		}
		if reqs[i].Weight == 0 {
			reqs[i].Weight = 1.0
		}
		if reqs[i].OrderIndex != 0 {
			allZero = false
		}
	}
	if allZero && len(reqs) > 1 {
		for i := range reqs {
			reqs[i].OrderIndex = i
		}
	}
}
