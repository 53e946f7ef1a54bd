// Package models holds the persisted shapes shared by repositories,
// services and the HTTP layer.
package models

// Column names of the vulnerabilities table, in storage order.
const (
	ColumnID            = "id"
	ColumnCVSSv2        = "cvss_v2"
	ColumnCVSSv3        = "cvss_v3"
	ColumnDescription   = "description"
	ColumnLastModified  = "last_modified"
	ColumnFirstCriteria = "first_criteria"
)

// Columns is the whitelist used wherever a column name comes from a request.
var Columns = []string{
	ColumnID,
	ColumnCVSSv2,
	ColumnCVSSv3,
	ColumnDescription,
	ColumnLastModified,
	ColumnFirstCriteria,
}

// IsColumn reports whether name is one of Columns.
func IsColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Vulnerability is one normalized CVE row. Any field may hold "N/A" when the
// upstream record did not carry a usable value.
type Vulnerability struct {
	ID            string `json:"id"`
	CVSSv2        string `json:"cvss_v2"`
	CVSSv3        string `json:"cvss_v3"`
	Description   string `json:"description"`
	LastModified  string `json:"last_modified"`
	FirstCriteria string `json:"first_criteria"`
}

// Row returns the field values in Columns order.
func (v Vulnerability) Row() []string {
	return []string{v.ID, v.CVSSv2, v.CVSSv3, v.Description, v.LastModified, v.FirstCriteria}
}

// Set assigns value to the field backing column. Unknown columns are ignored.
func (v *Vulnerability) Set(column, value string) {
	switch column {
	case ColumnID:
		v.ID = value
	case ColumnCVSSv2:
		v.CVSSv2 = value
	case ColumnCVSSv3:
		v.CVSSv3 = value
	case ColumnDescription:
		v.Description = value
	case ColumnLastModified:
		v.LastModified = value
	case ColumnFirstCriteria:
		v.FirstCriteria = value
	}
}
