// Package ingest decodes already-fetched GP/OMM JSON documents into raw
// element records grouped per satellite. It is the ingestion boundary:
// malformed rows are rejected individually and never reach the analyzers.
// Fetching, authentication, and any network concern live outside this
// repository.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// gpNumber is a numeric GP field. Some catalogs serialize numbers bare,
// others as quoted strings; this accepts both.
type gpNumber string

func (n *gpNumber) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if string(b) == "null" {
		*n = ""
		return nil
	}
	*n = gpNumber(b)
	return nil
}

func (n gpNumber) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

func (n gpNumber) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

func (n gpNumber) String() string { return string(n) }

// gpRecord mirrors one GP/OMM JSON row.
type gpRecord struct {
	ObjectName   string   `json:"OBJECT_NAME"`
	ObjectID     string   `json:"OBJECT_ID"`
	NoradCatID   gpNumber `json:"NORAD_CAT_ID"`
	Epoch        string   `json:"EPOCH"`
	MeanMotion   gpNumber `json:"MEAN_MOTION"`
	Eccentricity gpNumber `json:"ECCENTRICITY"`
	Inclination  gpNumber `json:"INCLINATION"`
	RAAN         gpNumber `json:"RA_OF_ASC_NODE"`
	ArgPerigee   gpNumber `json:"ARG_OF_PERICENTER"`
	MeanAnomaly  gpNumber `json:"MEAN_ANOMALY"`
	TLELine1     string   `json:"TLE_LINE1"`
	TLELine2     string   `json:"TLE_LINE2"`
}

// epochLayouts are the timestamp shapes seen in GP JSON exports: bare
// ISO-8601 with and without fractional seconds, and full RFC 3339.
var epochLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// Decode reads a GP/OMM JSON array and groups the rows into raw element
// records keyed by satellite identifier. Rows that fail to parse are
// returned in rejected with their array index; only a document that is not
// valid JSON at all fails the whole decode.
func Decode(r io.Reader) (map[string][]model.RawElementRecord, []error, error) {
	var rows []gpRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rows); err != nil {
		return nil, nil, fmt.Errorf("decode GP JSON: %w", err)
	}

	out := make(map[string][]model.RawElementRecord)
	var rejected []error
	for i, row := range rows {
		rec, err := toRaw(row)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		out[rec.SatelliteID] = append(out[rec.SatelliteID], rec)
	}
	return out, rejected, nil
}

// LoadFile decodes the GP/OMM JSON document at path.
func LoadFile(path string) (map[string][]model.RawElementRecord, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func toRaw(row gpRecord) (model.RawElementRecord, error) {
	id := satelliteID(row)
	if id == "" {
		return model.RawElementRecord{}, fmt.Errorf("no satellite identifier")
	}

	epoch, err := parseEpoch(row.Epoch)
	if err != nil {
		return model.RawElementRecord{}, err
	}

	raw := model.RawElementRecord{
		SatelliteID: id,
		Epoch:       epoch,
		TLELine1:    row.TLELine1,
		TLELine2:    row.TLELine2,
	}

	for _, f := range []struct {
		name string
		src  gpNumber
		dst  *float64
	}{
		{"MEAN_MOTION", row.MeanMotion, &raw.MeanMotion},
		{"ECCENTRICITY", row.Eccentricity, &raw.Eccentricity},
		{"INCLINATION", row.Inclination, &raw.Inclination},
		{"RA_OF_ASC_NODE", row.RAAN, &raw.RAAN},
		{"ARG_OF_PERICENTER", row.ArgPerigee, &raw.ArgPerigee},
		{"MEAN_ANOMALY", row.MeanAnomaly, &raw.MeanAnomaly},
	} {
		if f.src == "" {
			return model.RawElementRecord{}, fmt.Errorf("missing %s", f.name)
		}
		v, err := f.src.Float64()
		if err != nil {
			return model.RawElementRecord{}, fmt.Errorf("%s %q: %w", f.name, f.src.String(), err)
		}
		*f.dst = v
	}

	if row.NoradCatID != "" {
		if n, err := row.NoradCatID.Int64(); err == nil && n > 0 {
			raw.CatalogNumber = uint32(n)
		}
	}
	return raw, nil
}

// satelliteID prefers the object name (stable, human-meaningful across
// element-set revisions), then the international designator, then the
// catalog number.
func satelliteID(row gpRecord) string {
	if row.ObjectName != "" {
		return row.ObjectName
	}
	if row.ObjectID != "" {
		return row.ObjectID
	}
	if row.NoradCatID != "" {
		return row.NoradCatID.String()
	}
	return ""
}

func parseEpoch(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing EPOCH")
	}
	for _, layout := range epochLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("EPOCH %q: unrecognized timestamp", s)
}
