package types

// Link is one junction row: the entity keyed From in table Left is linked to
// the entity keyed To in table Right.
type Link struct {
	Junction string `json:"junction"`
	Left     string `json:"left"`
	Right    string `json:"right"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// TableInfo describes one table found in a lattice database.
type TableInfo struct {
	Name     string `json:"name"`
	Junction bool   `json:"junction"`
	Rows     int64  `json:"rows"`
}
