// Package integrity implements hashing-based change detection, advisory
// completeness/consistency checks and the append-only audit trail.
package integrity

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/verdantis/peaproc/internal/clock"
	"github.com/verdantis/peaproc/internal/domain/audit"
	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/metrics"
)

// Service is the data integrity checker. Stored hashes and the audit
// trail are the only mutable state; the trail is append only.
type Service struct {
	logger    *zap.Logger
	clock     clock.Clock
	collector metrics.Collector
	tolerance float64 // relative mass-balance tolerance

	mu     sync.RWMutex
	hashes map[string]string
	trail  []audit.Record
}

// NewService creates an integrity service. tolerance <= 0 uses the 0.02
// default.
func NewService(tolerance float64, clk clock.Clock, collector metrics.Collector, logger *zap.Logger) *Service {
	if tolerance <= 0 {
		tolerance = 0.02
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:    logger,
		clock:     clk,
		collector: collector,
		tolerance: tolerance,
		hashes:    make(map[string]string),
	}
}

// CalculateDataHash computes the canonical content hash of a dataset
func (s *Service) CalculateDataHash(data map[string]interface{}) (string, error) {
	return audit.CanonicalHash(data)
}

// CheckDataCompleteness reports required fields that are missing or hold
// null/empty values.
func (s *Service) CheckDataCompleteness(data map[string]interface{}, requiredFields []string) CompletenessReport {
	report := CompletenessReport{Complete: true, Score: 1}
	if len(requiredFields) == 0 {
		return report
	}

	present := 0
	for _, field := range requiredFields {
		value, ok := data[field]
		if !ok {
			report.MissingFields = append(report.MissingFields, field)
			continue
		}
		if isEmpty(value) {
			report.EmptyFields = append(report.EmptyFields, field)
			continue
		}
		present++
	}
	sort.Strings(report.MissingFields)
	sort.Strings(report.EmptyFields)

	report.Score = float64(present) / float64(len(requiredFields))
	report.Complete = present == len(requiredFields)
	return report
}

// CheckDataConsistency validates the mass balance of a snapshot and, when
// a previous snapshot is given, timestamp monotonicity against it.
func (s *Service) CheckDataConsistency(current Snapshot, previous *Snapshot) ConsistencyReport {
	report := ConsistencyReport{MassBalanceOK: true, TimestampsOK: true}

	if current.InputMass > 0 {
		imbalance := math.Abs(current.InputMass-current.OutputMass) / current.InputMass
		report.MassImbalance = imbalance
		if imbalance > s.tolerance {
			report.MassBalanceOK = false
			report.Issues = append(report.Issues,
				fmt.Sprintf("mass imbalance %.4f exceeds tolerance %.4f", imbalance, s.tolerance))
		}
	} else if current.OutputMass > 0 {
		report.MassBalanceOK = false
		report.MassImbalance = math.Inf(1)
		report.Issues = append(report.Issues, "output mass without input mass")
	}

	if previous != nil && !current.Timestamp.After(previous.Timestamp) {
		report.TimestampsOK = false
		report.Issues = append(report.Issues, "timestamp does not advance past previous snapshot")
	}

	report.Consistent = report.MassBalanceOK && report.TimestampsOK
	return report
}

// RecordDataChange computes the field-level diff between old and new
// data, appends an audit record and updates the stored hash for dataID.
func (s *Service) RecordDataChange(dataID, userID string, changeType audit.ChangeType, oldData, newData map[string]interface{}) (audit.Record, error) {
	newHash, err := audit.CanonicalHash(newData)
	if err != nil {
		return audit.Record{}, err
	}

	oldHash := ""
	if oldData != nil {
		oldHash, err = audit.CanonicalHash(oldData)
		if err != nil {
			return audit.Record{}, err
		}
	}

	changes, err := audit.DiffFields(oldData, newData)
	if err != nil {
		return audit.Record{}, err
	}

	record, err := audit.NewRecord(dataID, userID, changeType, oldHash, newHash, changes, s.clock.Now())
	if err != nil {
		return audit.Record{}, err
	}

	s.mu.Lock()
	s.trail = append(s.trail, record)
	s.hashes[dataID] = newHash
	s.mu.Unlock()

	s.logger.Info("data change recorded",
		zap.String("data_id", dataID),
		zap.String("change_type", string(changeType)),
		zap.Int("field_changes", len(changes)),
	)

	return record.Clone(), nil
}

// VerifyDataIntegrity recomputes the hash of data and compares it to the
// stored hash and the last audit record's hash. Mismatches come back as
// an advisory report, not an error.
func (s *Service) VerifyDataIntegrity(dataID string, data map[string]interface{}) (IntegrityReport, error) {
	if dataID == "" {
		return IntegrityReport{}, errors.NewValidationError("EMPTY_DATA_ID", "data id cannot be empty")
	}

	computed, err := audit.CanonicalHash(data)
	if err != nil {
		return IntegrityReport{}, err
	}

	s.mu.RLock()
	stored, known := s.hashes[dataID]
	var trailHash string
	for i := len(s.trail) - 1; i >= 0; i-- {
		if s.trail[i].DataID == dataID {
			trailHash = s.trail[i].NewHash
			break
		}
	}
	s.mu.RUnlock()

	if !known {
		return IntegrityReport{}, errors.NewNotFoundError(fmt.Sprintf("data id %s", dataID))
	}

	report := IntegrityReport{
		DataID:       dataID,
		Valid:        true,
		ComputedHash: computed,
		StoredHash:   stored,
		TrailHash:    trailHash,
	}

	if computed != stored {
		report.Valid = false
		report.Mismatches = append(report.Mismatches, "computed hash differs from stored hash")
	}
	if trailHash != "" && computed != trailHash {
		report.Valid = false
		report.Mismatches = append(report.Mismatches, "computed hash differs from last audit record")
	}

	outcome := "valid"
	if !report.Valid {
		outcome = "mismatch"
		s.logger.Warn("integrity verification failed",
			zap.String("data_id", dataID),
			zap.Strings("mismatches", report.Mismatches),
		)
	}
	s.collector.RecordIntegrityCheck(outcome)

	return report, nil
}

// MustVerify is the strict variant of VerifyDataIntegrity: any mismatch
// becomes an integrity error.
func (s *Service) MustVerify(dataID string, data map[string]interface{}) error {
	report, err := s.VerifyDataIntegrity(dataID, data)
	if err != nil {
		return err
	}
	if !report.Valid {
		return errors.NewIntegrityError("HASH_MISMATCH",
			fmt.Sprintf("integrity check failed for %s", dataID)).WithDetails(map[string]interface{}{
			"mismatches": report.Mismatches,
		})
	}
	return nil
}

// Trail returns a snapshot of the audit trail, optionally filtered by
// data id (empty id means all).
func (s *Service) Trail(dataID string) []audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Record, 0, len(s.trail))
	for _, record := range s.trail {
		if dataID != "" && record.DataID != dataID {
			continue
		}
		out = append(out, record.Clone())
	}
	return out
}

// isEmpty reports whether a field value counts as empty for completeness
// purposes.
func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	default:
		return false
	}
}
