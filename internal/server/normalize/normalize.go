package normalize

import (
	"github.com/dmitrijs2005/cvewatch/internal/server/models"
)

// Field binds a column to the path it is read from.
type Field struct {
	Column string
	Path   Path
}

// Fields lists every column in storage order.
var Fields = []Field{
	{models.ColumnID, MustParsePath("cve.id")},
	{models.ColumnCVSSv2, MustParsePath("cve.metrics.cvssMetricV2[0].cvssData.baseScore")},
	{models.ColumnCVSSv3, MustParsePath("cve.metrics.cvssMetricV31[0].cvssData.baseScore")},
	{models.ColumnDescription, MustParsePath("cve.descriptions[0].value")},
	{models.ColumnLastModified, MustParsePath("cve.lastModified")},
	{models.ColumnFirstCriteria, MustParsePath("cve.configurations[0].nodes[0].cpeMatch[0].criteria")},
}

// Outcome is the normalized row plus the columns that fell back to N/A.
type Outcome struct {
	Record    models.Vulnerability
	Fallbacks []string
}

// Normalize extracts every column of raw independently.
//
// Entries without an id all normalize to id "N/A" and so collide on insert:
// at most one of them is ever stored.
func Normalize(raw any) Outcome {
	var out Outcome
	for _, f := range Fields {
		v, ok := Extract(raw, f.Path)
		if !ok {
			out.Fallbacks = append(out.Fallbacks, f.Column)
		}
		out.Record.Set(f.Column, v)
	}
	return out
}
