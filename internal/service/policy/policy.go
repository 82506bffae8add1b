// Package policy decides whether roles may perform an action on a resource
// using the rules of the tenant policy document.
//
// Absent or invalid document and resource/action pairs without rules are allowed.
// Once a pair has rules, one of them has to fire.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nkiryanov/hrauth/internal/apperrors"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/models"
	"github.com/nkiryanov/hrauth/internal/repository"
)

const (
	ReasonNoDocument      = "no policy document configured"
	ReasonInvalidDocument = "policy document is invalid"
	ReasonNoRules         = "no policy configured for resource and action"
	ReasonAllowed         = "allowed by policy"
	ReasonDenied          = "no policy matched user roles"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseDocument decodes and validates policy document
// Both {"policies": [...]} object and bare rules array are accepted
func ParseDocument(raw []byte) (models.PolicyDocument, error) {
	var doc models.PolicyDocument

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return doc, errors.New("policy document is empty")
	}

	var err error
	switch raw[0] {
	case '[':
		err = json.Unmarshal(raw, &doc.Policies)
	case '{':
		err = json.Unmarshal(raw, &doc)
	default:
		err = errors.New("policy document must be object or array")
	}
	if err != nil {
		return models.PolicyDocument{}, fmt.Errorf("decode policy document: %w", err)
	}

	if err := validate.Struct(doc); err != nil {
		return models.PolicyDocument{}, fmt.Errorf("validate policy document: %w", err)
	}

	return doc, nil
}

type Engine struct {
	configs repository.TenantConfigRepo
	logger  logger.Logger
}

func New(configs repository.TenantConfigRepo, l logger.Logger) *Engine {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Engine{
		configs: configs,
		logger:  l.With("component", "policy"),
	}
}

// Evaluate returns decision for the context
// Error is returned only when the tenant config could not be read
func (e *Engine) Evaluate(ctx context.Context, pc models.PolicyContext) (models.Decision, error) {
	raw, err := e.configs.GetConfigJSON(ctx, pc.TenantID)
	switch {
	case errors.Is(err, apperrors.ErrTenantConfigNotFound):
		return models.Decision{Allowed: true, Reason: ReasonNoDocument}, nil
	case err != nil:
		return models.Decision{}, fmt.Errorf("load tenant policy: %w", err)
	}

	doc, err := ParseDocument([]byte(raw))
	if err != nil {
		e.logger.Warn("tenant policy document is invalid, access allowed", "tenant_id", pc.TenantID, "error", err)
		return models.Decision{Allowed: true, Reason: ReasonInvalidDocument}, nil
	}

	return Decide(doc, pc), nil
}

// Authorize is Evaluate for callers that only need yes or no
// Denial is reported as apperrors.ErrPolicyDenied with the reason
func (e *Engine) Authorize(ctx context.Context, pc models.PolicyContext) error {
	decision, err := e.Evaluate(ctx, pc)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", apperrors.ErrPolicyDenied, decision.Reason)
	}
	return nil
}

// SetDocument stores tenant policy document if it is valid
func (e *Engine) SetDocument(ctx context.Context, tenantID uuid.UUID, raw []byte) error {
	if _, err := ParseDocument(raw); err != nil {
		return err
	}

	if err := e.configs.SetConfigJSON(ctx, tenantID, string(bytes.TrimSpace(raw))); err != nil {
		return fmt.Errorf("store tenant policy: %w", err)
	}

	e.logger.Info("tenant policy document updated", "tenant_id", tenantID)
	return nil
}

// Decide evaluates the document rules in order against the context
func Decide(doc models.PolicyDocument, pc models.PolicyContext) models.Decision {
	matched := false

	for _, rule := range doc.Policies {
		if rule.Resource != pc.Resource || rule.Action != pc.Action {
			continue
		}
		matched = true

		if !intersectFold(rule.Roles, pc.Roles) {
			continue
		}
		if rule.Scope == models.PolicyScopeSelf && !isSelf(pc) {
			continue
		}

		return models.Decision{Allowed: true, Reason: ReasonAllowed}
	}

	if !matched {
		return models.Decision{Allowed: true, Reason: ReasonNoRules}
	}
	return models.Decision{Allowed: false, Reason: ReasonDenied}
}

func isSelf(pc models.PolicyContext) bool {
	return pc.ActorUserID != nil && pc.TargetUserID != nil && *pc.ActorUserID == *pc.TargetUserID
}

func intersectFold(allowed []string, roles []string) bool {
	for _, a := range allowed {
		for _, r := range roles {
			if strings.EqualFold(a, r) {
				return true
			}
		}
	}
	return false
}
