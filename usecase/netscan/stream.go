package netscan

import (
	"golang.org/x/xerrors"

	"netscan/domain/entity"
	"netscan/infrastructure/log"
	"netscan/infrastructure/scanner"
	"netscan/usecase/classify"
	"netscan/usecase/extract"
	"netscan/usecase/validate"
)

// Stream is a lazy sequence of network records. Records are produced in
// candidate order, and at most the records of one candidate are held.
//
//	for stream.Next() {
//		record := stream.Record()
//	}
//	if err := stream.Err(); err != nil {
//	}
type Stream struct {
	id      string
	profile *entity.OsVersionProfile
	layout  *entity.StructLayout

	candidates scanner.Iterator
	classifier *classify.Classifier
	validator  *validate.Validator
	extractor  *extract.Extractor
	logger     log.Logger

	pending []*entity.NetworkRecord
	current *entity.NetworkRecord
	done    bool
	err     error
}

// ID identifies the scan in diagnostics.
func (s *Stream) ID() string {
	return s.id
}

func (s *Stream) Profile() *entity.OsVersionProfile {
	return s.profile
}

func (s *Stream) Layout() *entity.StructLayout {
	return s.layout
}

// Next advances to the next record and reports whether there is one.
func (s *Stream) Next() bool {
	s.current = nil
	for len(s.pending) == 0 {
		if s.done || !s.fill() {
			return false
		}
	}
	s.current, s.pending = s.pending[0], s.pending[1:]
	return true
}

// fill pulls one candidate through the pipeline. It returns false once the
// scanner is exhausted.
func (s *Stream) fill() bool {
	candidate, ok := s.candidates.Next()
	if !ok {
		s.done = true
		if err := s.candidates.Err(); err != nil {
			s.err = xerrors.Errorf("scan stopped: %w", err)
		}
		return false
	}

	record := s.classifier.Classify(candidate)
	if record.Kind == entity.UnknownKind {
		return true
	}
	if !s.validator.IsValid(record) {
		return true
	}
	s.pending = s.extractor.Extract(record)
	if len(s.pending) == 0 {
		s.logger.Debugf("no record extracted from %s", record)
	}
	return true
}

// Record returns the record Next advanced to.
func (s *Stream) Record() *entity.NetworkRecord {
	return s.current
}

func (s *Stream) Err() error {
	return s.err
}

// Collect drains the stream.
func (s *Stream) Collect() ([]*entity.NetworkRecord, error) {
	var records []*entity.NetworkRecord
	for s.Next() {
		records = append(records, s.Record())
	}
	return records, s.Err()
}
