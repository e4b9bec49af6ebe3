package model

import (
	"errors"
	"fmt"

	"github.com/quorumchain/bft/model/chain"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownVertex    = errors.New("unknown vertex")
)

// NoVoteError contains the reason of why the replica didn't vote for a vertex.
// Refusing to vote is always safe, so callers treat it as a benign outcome.
type NoVoteError struct {
	Msg string
}

func (e NoVoteError) Error() string { return e.Msg }

// NewNoVoteErrorf creates a NoVoteError with a formatted reason.
func NewNoVoteErrorf(msg string, args ...interface{}) error {
	return NoVoteError{Msg: fmt.Sprintf(msg, args...)}
}

// IsNoVoteError returns whether an error is NoVoteError
func IsNoVoteError(err error) bool {
	var e NoVoteError
	return errors.As(err, &e)
}

// ConfigurationError indicates that a constructor or component was initialized with
// invalid or inconsistent parameters.
type ConfigurationError struct {
	err error
}

func NewConfigurationError(err error) error {
	return ConfigurationError{err}
}

func NewConfigurationErrorf(msg string, args ...interface{}) error {
	return ConfigurationError{fmt.Errorf(msg, args...)}
}

func (e ConfigurationError) Error() string { return e.err.Error() }
func (e ConfigurationError) Unwrap() error { return e.err }

// IsConfigurationError returns whether err is a ConfigurationError
func IsConfigurationError(err error) bool {
	var e ConfigurationError
	return errors.As(err, &e)
}

// MissingParentError indicates that a vertex could not be inserted because
// its parent is not in the vertex store.
type MissingParentError struct {
	VertexID chain.Identifier
	View     uint64
	ParentID chain.Identifier
}

func (e MissingParentError) Error() string {
	return fmt.Sprintf("vertex %v at view %d is missing parent %v", e.VertexID, e.View, e.ParentID)
}

// IsMissingParentError returns whether an error is MissingParentError
func IsMissingParentError(err error) bool {
	var e MissingParentError
	return errors.As(err, &e)
}

// EpochMismatchError indicates that a message belongs to a different epoch
// than the component processing it.
type EpochMismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e EpochMismatchError) Error() string {
	return fmt.Sprintf("expected epoch %d but message is for epoch %d", e.Expected, e.Actual)
}

// IsEpochMismatchError returns whether an error is EpochMismatchError
func IsEpochMismatchError(err error) bool {
	var e EpochMismatchError
	return errors.As(err, &e)
}

// InvalidVoteError indicates that the vote with identifier `VoteID` is invalid
type InvalidVoteError struct {
	VoteID chain.Identifier
	View   uint64
	Err    error
}

func NewInvalidVoteErrorf(vote *Vote, msg string, args ...interface{}) error {
	return InvalidVoteError{
		VoteID: vote.ID(),
		View:   vote.View,
		Err:    fmt.Errorf(msg, args...),
	}
}

func (e InvalidVoteError) Error() string {
	return fmt.Sprintf("invalid vote %x for view %d: %s", e.VoteID, e.View, e.Err.Error())
}

// IsInvalidVoteError returns whether an error is InvalidVoteError
func IsInvalidVoteError(err error) bool {
	var e InvalidVoteError
	return errors.As(err, &e)
}

func (e InvalidVoteError) Unwrap() error {
	return e.Err
}

// InvalidProposalError indicates that a proposal is malformed or badly signed.
type InvalidProposalError struct {
	VertexID chain.Identifier
	View     uint64
	Err      error
}

func NewInvalidProposalErrorf(proposal *Proposal, msg string, args ...interface{}) error {
	return InvalidProposalError{
		VertexID: proposal.Vertex.ID(),
		View:     proposal.View(),
		Err:      fmt.Errorf(msg, args...),
	}
}

func (e InvalidProposalError) Error() string {
	return fmt.Sprintf("invalid proposal %x at view %d: %s", e.VertexID, e.View, e.Err.Error())
}

// IsInvalidProposalError returns whether an error is InvalidProposalError
func IsInvalidProposalError(err error) bool {
	var e InvalidProposalError
	return errors.As(err, &e)
}

func (e InvalidProposalError) Unwrap() error {
	return e.Err
}

// InvalidCertificateError indicates that a QC or TC failed verification.
type InvalidCertificateError struct {
	View uint64
	Err  error
}

func (e InvalidCertificateError) Error() string {
	return fmt.Sprintf("invalid certificate for view %d: %s", e.View, e.Err.Error())
}

// IsInvalidCertificateError returns whether an error is InvalidCertificateError
func IsInvalidCertificateError(err error) bool {
	var e InvalidCertificateError
	return errors.As(err, &e)
}

func (e InvalidCertificateError) Unwrap() error {
	return e.Err
}

// ErrPrunedVertex is returned when inserting a vertex at or below the
// committed root. Such a vertex can never become part of the chain.
var ErrPrunedVertex = errors.New("vertex is at or below the committed root")
