package policy

import (
	"fmt"
	"slices"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"hris/internal/platform/localdate"
)

// ResolveRules keeps the company-specific rule whenever a global rule shares its code.
// Inactive rules are dropped. Order follows the input.
func ResolveRules(rules []Rule, companyID string) []Rule {
	companyCodes := map[string]bool{}
	for _, r := range rules {
		if r.Active && r.CompanyID != nil && *r.CompanyID == companyID {
			companyCodes[r.Code] = true
		}
	}
	var out []Rule
	for _, r := range rules {
		if !r.Active {
			continue
		}
		if r.CompanyID == nil {
			if companyCodes[r.Code] {
				continue
			}
			out = append(out, r)
			continue
		}
		if *r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out
}

// Evaluate runs each rule against the payload. Payload fields read by rule type:
// dateOfBirth, documents, qualifications, startDate, days, plus the field named
// by approval_required configs. asOf anchors age and notice computations.
func Evaluate(rules []Rule, payload []byte, asOf time.Time) (Evaluation, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return Evaluation{}, ErrInvalidPayload
	}
	eval := Evaluation{Violations: []Finding{}, Warnings: []Finding{}}
	for _, rule := range rules {
		cfg, err := DecodeConfig(rule.RuleType, rule.Config)
		if err != nil {
			return Evaluation{}, fmt.Errorf("rule %s: %w", rule.Code, err)
		}
		message, failed := check(rule.RuleType, cfg, doc, asOf)
		if !failed {
			continue
		}
		finding := Finding{
			RuleID:   rule.ID,
			Code:     rule.Code,
			Name:     rule.Name,
			RuleType: rule.RuleType,
			Severity: rule.Severity,
			Message:  message,
		}
		if rule.Severity == SeverityWarning {
			eval.Warnings = append(eval.Warnings, finding)
		} else {
			eval.Violations = append(eval.Violations, finding)
		}
	}
	eval.Allowed = len(eval.Violations) == 0 && len(eval.Warnings) == 0
	return eval, nil
}

// DecodeConfig parses and checks a rule config for its type.
func DecodeConfig(ruleType string, raw []byte) (RuleConfig, error) {
	var cfg RuleConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return RuleConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	switch ruleType {
	case RuleAgeRestriction:
		if cfg.MinAge == nil && cfg.MaxAge == nil {
			return RuleConfig{}, fmt.Errorf("%w: minAge or maxAge required", ErrInvalidConfig)
		}
	case RuleDocumentRequired:
		if len(cfg.Documents) == 0 {
			return RuleConfig{}, fmt.Errorf("%w: documents required", ErrInvalidConfig)
		}
	case RuleQualificationRequired:
		if len(cfg.Qualifications) == 0 {
			return RuleConfig{}, fmt.Errorf("%w: qualifications required", ErrInvalidConfig)
		}
	case RuleTimeLimit:
		if cfg.MinNoticeDays == nil && cfg.MaxDays == nil {
			return RuleConfig{}, fmt.Errorf("%w: minNoticeDays or maxDays required", ErrInvalidConfig)
		}
	case RuleApprovalRequired:
		if cfg.Threshold == nil {
			return RuleConfig{}, fmt.Errorf("%w: threshold required", ErrInvalidConfig)
		}
		if cfg.Field == "" {
			cfg.Field = "days"
		}
	default:
		return RuleConfig{}, ErrUnknownRuleType
	}
	return cfg, nil
}

func check(ruleType string, cfg RuleConfig, doc gjson.Result, asOf time.Time) (string, bool) {
	switch ruleType {
	case RuleAgeRestriction:
		dob, err := localdate.ParseLocalDate(doc.Get("dateOfBirth").String())
		if err != nil || dob.IsZero() {
			return "date of birth is required to check age", true
		}
		age := localdate.CompletedYears(dob, localdate.FromTime(asOf))
		if cfg.MinAge != nil && age < *cfg.MinAge {
			return fmt.Sprintf("age %d is below the minimum of %d", age, *cfg.MinAge), true
		}
		if cfg.MaxAge != nil && age > *cfg.MaxAge {
			return fmt.Sprintf("age %d is above the maximum of %d", age, *cfg.MaxAge), true
		}
	case RuleDocumentRequired:
		if missing := missingValues(cfg.Documents, doc.Get("documents")); len(missing) > 0 {
			return "missing documents: " + strings.Join(missing, ", "), true
		}
	case RuleQualificationRequired:
		if missing := missingValues(cfg.Qualifications, doc.Get("qualifications")); len(missing) > 0 {
			return "missing qualifications: " + strings.Join(missing, ", "), true
		}
	case RuleTimeLimit:
		if cfg.MinNoticeDays != nil {
			start, err := localdate.ParseLocalDate(doc.Get("startDate").String())
			if err != nil || start.IsZero() {
				return "start date is required to check notice", true
			}
			notice := int(start.Sub(localdate.FromTime(asOf)).Hours() / 24)
			if notice < *cfg.MinNoticeDays {
				return fmt.Sprintf("requires %d days notice, got %d", *cfg.MinNoticeDays, notice), true
			}
		}
		if cfg.MaxDays != nil {
			if days := doc.Get("days").Float(); days > *cfg.MaxDays {
				return fmt.Sprintf("%.2f days exceeds the limit of %.2f", days, *cfg.MaxDays), true
			}
		}
	case RuleApprovalRequired:
		if value := doc.Get(cfg.Field).Float(); value > *cfg.Threshold {
			return fmt.Sprintf("%s %.2f exceeds %.2f and requires approval", cfg.Field, value, *cfg.Threshold), true
		}
	}
	return "", false
}

func missingValues(required []string, present gjson.Result) []string {
	have := map[string]bool{}
	for _, item := range present.Array() {
		have[strings.ToLower(strings.TrimSpace(item.String()))] = true
	}
	var missing []string
	for _, r := range required {
		if !have[strings.ToLower(strings.TrimSpace(r))] {
			missing = append(missing, r)
		}
	}
	slices.Sort(missing)
	return missing
}
