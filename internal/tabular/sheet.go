package tabular

// NewSheet resolves header and keys every record by field. Columns whose
// header is not recognized are ignored. Records shorter than the header
// are padded so every known column is present on every row.
func NewSheet(name string, header []string, records [][]string) *Sheet {
	s := &Sheet{Name: name}
	fields := make([]string, len(header))
	seen := make(map[string]bool)
	for i, h := range header {
		field, ok := ResolveHeader(h)
		if !ok || seen[field] {
			continue
		}
		seen[field] = true
		fields[i] = field
		s.Columns = append(s.Columns, field)
	}

	for n, record := range records {
		row := RawRow{
			Sheet:  name,
			Number: n + 2,
			Cells:  make(map[string]string, len(s.Columns)),
		}
		for i, field := range fields {
			if field == "" {
				continue
			}
			if i < len(record) {
				row.Cells[field] = record[i]
			} else {
				row.Cells[field] = ""
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}
