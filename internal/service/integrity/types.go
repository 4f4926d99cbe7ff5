package integrity

import "time"

// CompletenessReport flags missing required fields and empty values.
// Advisory: the check reports, it does not fail.
type CompletenessReport struct {
	Complete      bool     `json:"complete"`
	MissingFields []string `json:"missing_fields,omitempty"`
	EmptyFields   []string `json:"empty_fields,omitempty"`
	// Score is the fraction of required fields present and non-empty.
	Score float64 `json:"score"`
}

// Snapshot is the state a consistency check runs against
type Snapshot struct {
	InputMass  float64   `json:"input_mass"`
	OutputMass float64   `json:"output_mass"`
	Timestamp  time.Time `json:"timestamp"`
}

// ConsistencyReport flags mass-balance and time-sequence violations.
// Advisory, like CompletenessReport.
type ConsistencyReport struct {
	Consistent    bool     `json:"consistent"`
	MassBalanceOK bool     `json:"mass_balance_ok"`
	MassImbalance float64  `json:"mass_imbalance"` // |in - out| / in
	TimestampsOK  bool     `json:"timestamps_ok"`
	Issues        []string `json:"issues,omitempty"`
}

// IntegrityReport compares a dataset's recomputed hash against the stored
// hash and the audit trail's last record.
type IntegrityReport struct {
	DataID       string   `json:"data_id"`
	Valid        bool     `json:"valid"`
	ComputedHash string   `json:"computed_hash"`
	StoredHash   string   `json:"stored_hash"`
	TrailHash    string   `json:"trail_hash,omitempty"`
	Mismatches   []string `json:"mismatches,omitempty"`
}
