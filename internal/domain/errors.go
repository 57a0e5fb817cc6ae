package domain

import "errors"

var (
	ErrInvalidProbability   = errors.New("probability outside [0,1]")
	ErrBeliefSize           = errors.New("belief vector has wrong length")
	ErrBeliefSum            = errors.New("belief vector does not sum to one")
	ErrUnknownBucketColour  = errors.New("unknown bucket colour")
	ErrUnknownScoreFunction = errors.New("unknown score function")
	ErrUnknownDecisionRule  = errors.New("unknown decision rule")
	ErrUnknownAlgorithm     = errors.New("unknown optimizer algorithm")
	ErrUnknownReportOrder   = errors.New("unknown report order")
	ErrMalformedBatch       = errors.New("malformed experience batch")
	ErrNoReports            = errors.New("market has no reports to resolve")
)
