package schema

import "strings"

// JunctionPrefix starts the name of every junction table.
const JunctionPrefix = "junction_"

// peerSuffix names the second column of a self-relation junction.
const peerSuffix = "_peer"

// Junction is the link table shared by two entity tables. The name and the
// column layout are a persisted convention: junction_<a>_<b> with a <= b,
// one TEXT column per table named after it.
type Junction struct {
	Name        string
	Left        string
	Right       string
	LeftColumn  string
	RightColumn string
}

// JunctionOf returns the junction of tables a and b. Argument order does
// not matter.
func JunctionOf(a, b string) Junction {
	if b < a {
		a, b = b, a
	}
	j := Junction{
		Name:        JunctionPrefix + a + "_" + b,
		Left:        a,
		Right:       b,
		LeftColumn:  a,
		RightColumn: b,
	}
	if a == b {
		j.RightColumn = b + peerSuffix
	}
	return j
}

// Self reports whether the junction links a table to itself.
func (j Junction) Self() bool { return j.Left == j.Right }

// Columns returns the column holding keys of owner and the column holding
// keys of the other side.
func (j Junction) Columns(owner string) (own, other string) {
	if owner == j.Left {
		return j.LeftColumn, j.RightColumn
	}
	return j.RightColumn, j.LeftColumn
}

// KeyColumns returns every column that may hold a key of table. A self
// junction holds the table's keys in both columns.
func (j Junction) KeyColumns(table string) []string {
	switch {
	case j.Self() && table == j.Left:
		return []string{j.LeftColumn, j.RightColumn}
	case table == j.Left:
		return []string{j.LeftColumn}
	case table == j.Right:
		return []string{j.RightColumn}
	default:
		return nil
	}
}

// IsJunctionName reports whether a table name follows the junction naming
// convention.
func IsJunctionName(name string) bool {
	return strings.HasPrefix(name, JunctionPrefix)
}
