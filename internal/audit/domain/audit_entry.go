// Package domain defines the audit trail entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of an audited operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeBlocked Outcome = "blocked"
)

// Actions recorded by the application.
const (
	ActionArtifactSubmit   = "artifact_submit"
	ActionArtifactRetrieve = "artifact_retrieve"
	ActionArtifactPurge    = "artifact_purge"
	ActionLogin            = "login"
	ActionSetPassword      = "set_password"
	ActionAPIKeyIssue      = "api_key_issue"
	ActionAPIKeyRevoke     = "api_key_revoke"
	ActionAPIAccess        = "api_access"
	ActionRateLimit        = "rate_limit"
	ActionPrincipalCreate  = "principal_create"
)

// Resources recorded by the application.
const (
	ResourceArtifact  = "artifact"
	ResourcePrincipal = "principal"
	ResourceAPI       = "api"
)

// Entry is one immutable audit record. Once written it is never updated or
// deleted by the application; retention is an external housekeeping concern.
type Entry struct {
	ID            uuid.UUID
	RequestID     string
	ActorID       *uuid.UUID // nil for anonymous or system actions
	Action        string
	Resource      string
	ResourceID    *string
	SourceAddress string
	AgentString   string
	Outcome       Outcome
	Detail        string // redacted before persistence
	Metadata      map[string]any
	Signature     []byte
	CreatedAt     time.Time
}

// Event is the caller-facing input of the audit trail. Fields left empty are
// filled from the RequestMeta carried by the context.
type Event struct {
	Action        string
	Resource      string
	ResourceID    string
	ActorID       *uuid.UUID
	SourceAddress string
	AgentString   string
	Outcome       Outcome
	Detail        string
	Metadata      map[string]any
}
