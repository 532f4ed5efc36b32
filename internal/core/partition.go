package core

// partition.go groups rows into report sections.
//
// Partitions keep first-seen order: the partition for a key tuple is created
// when the first row carrying that tuple is met, and later rows are appended
// in input order. Nothing is sorted.

// PartitionKey identifies a report section.
type PartitionKey struct {
	Participant string `json:"participant"`
	Entity      string `json:"entity"`
	Period      string `json:"period"`
}

// Partition holds the rows sharing one key tuple. Rows are shared with the
// caller's slice, not copied.
type Partition struct {
	Key  PartitionKey
	Rows []*Row
}

// Contains reports whether the partition holds the row with the given number.
func (p *Partition) Contains(number int) bool {
	for _, r := range p.Rows {
		if r.Number == number {
			return true
		}
	}
	return false
}

// KeyColumns names the three columns a partition key is built from.
type KeyColumns struct {
	Participant string
	Entity      string
	Period      string
}

// DefaultKeyColumns are the OES partition columns.
var DefaultKeyColumns = KeyColumns{
	Participant: "DsgntParticipant",
	Entity:      "RprtEntityCd",
	Period:      "RptDate",
}

// PartitionRows groups rows by the text of their key columns. A number and a
// string with the same text land in the same partition.
func PartitionRows(rows []*Row, cols KeyColumns) []*Partition {
	var partitions []*Partition
	index := make(map[PartitionKey]*Partition)

	for _, row := range rows {
		key := PartitionKey{
			Participant: row.Get(cols.Participant).Text(),
			Entity:      row.Get(cols.Entity).Text(),
			Period:      row.Get(cols.Period).Text(),
		}

		p, ok := index[key]
		if !ok {
			p = &Partition{Key: key}
			index[key] = p
			partitions = append(partitions, p)
		}
		p.Rows = append(p.Rows, row)
	}

	return partitions
}
