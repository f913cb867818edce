package rowmap

// ColumnDescriptor describes one column of a table as reported by
// information_schema.columns.
type ColumnDescriptor struct {
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"data_type" yaml:"data_type"`
	// MaxLength is set only for bounded character types.
	MaxLength *int64 `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Nullable  bool   `json:"nullable" yaml:"nullable"`
}

// Person is the example entity returned by the people query.
type Person struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}
