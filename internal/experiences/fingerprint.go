package experiences

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"time"
)

// Fingerprint returns a stable hash of an experience set. Any added, edited
// or removed record changes it.
func Fingerprint(records []Record) string {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := sha256.New()
	for _, r := range sorted {
		for _, field := range []string{
			r.ID,
			string(r.Kind),
			r.Company,
			r.Location,
			r.Role,
			formatDate(r.StartDate),
			formatDatePtr(r.EndDate),
			r.Description,
			strconv.Itoa(len(r.Embedding)),
		} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
