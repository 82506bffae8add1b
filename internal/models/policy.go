package models

import (
	"github.com/google/uuid"
)

const PolicyScopeSelf = "self"

// PolicyRule allows roles to perform action on resource
type PolicyRule struct {
	Resource string   `json:"resource" validate:"required"`
	Action   string   `json:"action" validate:"required"`
	Roles    []string `json:"roles" validate:"dive,required"`
	Scope    string   `json:"scope,omitempty" validate:"omitempty,oneof=self"`
}

// PolicyDocument is the tenant owned list of rules, evaluated in order
type PolicyDocument struct {
	Policies []PolicyRule `json:"policies" validate:"dive"`
}

type PolicyContext struct {
	TenantID     uuid.UUID
	Resource     string
	Action       string
	Roles        []string
	ActorUserID  *uuid.UUID
	TargetUserID *uuid.UUID
}

type Decision struct {
	Allowed bool
	Reason  string
}
