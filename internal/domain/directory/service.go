package directory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/domain/notifications"
	"hris/internal/domain/policy"
	"hris/internal/platform/events"
	"hris/internal/platform/localdate"
	"hris/internal/platform/metrics"
	"hris/internal/platform/requestctx"
)

type PolicyEnforcer interface {
	Enforce(ctx context.Context, in policy.Enforcement) (policy.Decision, error)
	RecordOverrides(ctx context.Context, tenantID, policyContext, entityType, entityID, actorUserID string, overrides []policy.Override) error
}

type Inviter interface {
	SendEmail(ctx context.Context, tenantID string, req notifications.EmailRequest) (notifications.EmailResult, error)
}

type Service struct {
	store     StoreAPI
	policies  PolicyEnforcer
	inviter   Inviter
	publisher events.Publisher
	maxRows   int

	hashPassword func(string) (string, error)
	newPassword  func() (string, error)
}

func NewService(store StoreAPI, policies PolicyEnforcer, inviter Inviter, publisher events.Publisher, maxRows int) *Service {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Service{
		store:        store,
		policies:     policies,
		inviter:      inviter,
		publisher:    publisher,
		maxRows:      maxRows,
		hashPassword: auth.HashPassword,
		newPassword:  temporaryPassword,
	}
}

func temporaryPassword() (string, error) {
	token, err := auth.RandomToken()
	if err != nil {
		return "", err
	}
	if len(token) > 16 {
		token = token[:16]
	}
	return token, nil
}

// Prefetch loads the reference data rows are resolved against, in parallel.
func (s *Service) Prefetch(ctx context.Context, tenantID string) (Lookup, error) {
	var (
		companies []core.Company
		groups    []core.CompanyGroup
		divisions []core.Division
		lookup    Lookup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		companies, err = s.store.ListCompanies(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		groups, err = s.store.ListGroups(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		divisions, err = s.store.ListDivisions(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		lookup.Roles, err = s.store.RoleIDs(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		lookup.UserEmails, err = s.store.UserEmails(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		lookup.EmployeeEmails, err = s.store.EmployeeEmails(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Lookup{}, fmt.Errorf("prefetch reference data: %w", err)
	}

	lookup.Companies = make(map[string]string, len(companies))
	lookup.CompanyGroups = make(map[string]string, len(companies))
	for _, c := range companies {
		lookup.Companies[strings.ToLower(c.Code)] = c.ID
		lookup.CompanyGroups[c.ID] = c.GroupID
	}
	lookup.Groups = make(map[string]string, len(groups))
	for _, grp := range groups {
		lookup.Groups[strings.ToLower(grp.Code)] = grp.ID
	}
	lookup.Divisions = make(map[string]string, len(divisions))
	for _, d := range divisions {
		lookup.Divisions[divisionKey(d.CompanyID, strings.ToLower(d.Code))] = d.ID
	}
	if lookup.Roles == nil {
		lookup.Roles = map[string]string{}
	}
	if lookup.UserEmails == nil {
		lookup.UserEmails = map[string]bool{}
	}
	if lookup.EmployeeEmails == nil {
		lookup.EmployeeEmails = map[string]string{}
	}
	return lookup, nil
}

// Import processes rows in order. A row never aborts the batch; only reference
// data or policy lookups failing do. Managers must exist already or appear in
// an earlier row.
func (s *Service) Import(ctx context.Context, actor auth.UserContext, rows []Row, opts Options) (Summary, error) {
	if len(rows) == 0 {
		return Summary{}, ErrNoRows
	}
	if len(rows) > s.maxRows {
		return Summary{}, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(rows), s.maxRows)
	}
	lookup, err := s.Prefetch(ctx, actor.TenantID)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(rows), DryRun: opts.DryRun, Results: make([]RowResult, 0, len(rows))}
	for i, row := range rows {
		result, err := s.importRow(ctx, actor, i+1, row, &lookup, opts)
		if err != nil {
			return Summary{}, err
		}
		switch result.Status {
		case OutcomeCreated:
			summary.Created++
		case OutcomeSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
		if !opts.DryRun {
			metrics.RecordImportRow(result.Status)
		}
		summary.Results = append(summary.Results, result)
	}

	if !opts.DryRun && summary.Created > 0 {
		events.Emit(ctx, s.publisher, events.Event{
			Type:     events.UsersImported,
			TenantID: actor.TenantID,
			Payload: map[string]any{
				"actorId": actor.UserID,
				"total":   summary.Total,
				"created": summary.Created,
				"skipped": summary.Skipped,
				"failed":  summary.Failed,
			},
		})
	}
	return summary, nil
}

func (s *Service) importRow(ctx context.Context, actor auth.UserContext, index int, row Row, lookup *Lookup, opts Options) (RowResult, error) {
	email := strings.ToLower(strings.TrimSpace(row.Email))
	result := RowResult{Row: index, Email: email}

	employee, roleID, problems := prepare(row, lookup)
	if len(problems) > 0 {
		result.Status = OutcomeFailed
		result.Reason = strings.Join(problems, "; ")
		return result, nil
	}
	if lookup.UserEmails[email] {
		result.Status = OutcomeSkipped
		result.Reason = "user already exists"
		return result, nil
	}
	if _, ok := lookup.EmployeeEmails[email]; ok {
		result.Status = OutcomeSkipped
		result.Reason = "employee already exists"
		return result, nil
	}

	var overrides []policy.Override
	if s.policies != nil {
		decision, err := s.policies.Enforce(ctx, policy.Enforcement{
			TenantID:       actor.TenantID,
			CompanyID:      employee.CompanyID,
			Context:        PolicyContextHiring,
			Payload:        hiringPayload(row, employee),
			Justifications: opts.Justifications,
		})
		var decisionErr *policy.DecisionError
		switch {
		case errors.As(err, &decisionErr):
			result.Status = OutcomeFailed
			result.Reason = policyReason(decisionErr)
			return result, nil
		case err != nil:
			return RowResult{}, err
		}
		overrides = decision.Overrides
	}

	if opts.DryRun {
		result.Status = OutcomeCreated
		lookup.UserEmails[email] = true
		lookup.EmployeeEmails[email] = ""
		return result, nil
	}

	password, err := s.newPassword()
	if err != nil {
		return RowResult{}, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return RowResult{}, err
	}
	userID, employeeID, err := s.store.CreateUserWithEmployee(ctx, actor.TenantID, NewUser{Email: email, PasswordHash: hash, RoleID: roleID}, employee)
	switch {
	case errors.Is(err, ErrDuplicateUser), errors.Is(err, core.ErrDuplicateEmail):
		result.Status = OutcomeSkipped
		result.Reason = err.Error()
		return result, nil
	case err != nil:
		requestctx.Logger(ctx).Error("import row failed", "row", index, "err", err)
		result.Status = OutcomeFailed
		result.Reason = "could not create user"
		return result, nil
	}

	result.Status = OutcomeCreated
	result.UserID = userID
	result.EmployeeID = employeeID
	lookup.UserEmails[email] = true
	lookup.EmployeeEmails[email] = employeeID

	if len(overrides) > 0 {
		if err := s.policies.RecordOverrides(ctx, actor.TenantID, PolicyContextHiring, EntityUser, userID, actor.UserID, overrides); err != nil {
			requestctx.Logger(ctx).Warn("record hiring overrides failed", "userId", userID, "err", err)
		}
	}

	if !opts.SendInvites || s.inviter == nil || !s.invite(ctx, actor.TenantID, email, row.FirstName, password) {
		result.TemporaryPassword = password
	}
	return result, nil
}

func (s *Service) invite(ctx context.Context, tenantID, email, firstName, password string) bool {
	body := fmt.Sprintf("Hello %s,\n\nAn account has been created for you.\n\nTemporary password: `%s`\n\nYou will be asked to change it on first sign-in.\n", firstName, password)
	_, err := s.inviter.SendEmail(ctx, tenantID, notifications.EmailRequest{
		To:       []string{email},
		Subject:  "Your account is ready",
		Markdown: body,
		Type:     notifications.TypeAccountCreated,
	})
	if err != nil {
		requestctx.Logger(ctx).Warn("invitation email failed", "email", email, "err", err)
		return false
	}
	return true
}

// prepare validates a row and resolves its codes. Every problem is reported,
// not only the first.
func prepare(row Row, lookup *Lookup) (core.EmployeeInput, string, []string) {
	var problems []string
	in := core.EmployeeInput{
		FirstName:      strings.TrimSpace(row.FirstName),
		LastName:       strings.TrimSpace(row.LastName),
		Email:          strings.ToLower(strings.TrimSpace(row.Email)),
		EmployeeNumber: strings.TrimSpace(row.EmployeeNumber),
		JobTitle:       strings.TrimSpace(row.JobTitle),
		CURP:           core.NormalizeID(row.CURP),
		RFC:            core.NormalizeID(row.RFC),
		NSS:            strings.TrimSpace(row.NSS),
		PayFrequency:   strings.ToLower(strings.TrimSpace(row.PayFrequency)),
		Qualifications: row.Qualifications,
		Status:         core.EmployeeStatusActive,
	}

	if !core.ValidEmail(in.Email) {
		problems = append(problems, "email is invalid")
	}
	if in.FirstName == "" {
		problems = append(problems, "firstName is required")
	}
	if in.LastName == "" {
		problems = append(problems, "lastName is required")
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		role = auth.RoleEmployee
	}
	roleID, ok := lookup.Roles[strings.ToLower(role)]
	if !ok {
		problems = append(problems, fmt.Sprintf("role %q is unknown", role))
	}

	companyCode := strings.ToLower(strings.TrimSpace(row.CompanyCode))
	companyID, ok := lookup.Companies[companyCode]
	switch {
	case companyCode == "":
		problems = append(problems, "companyCode is required")
	case !ok:
		problems = append(problems, fmt.Sprintf("company %q not found", row.CompanyCode))
	default:
		in.CompanyID = companyID
		if code := strings.ToLower(strings.TrimSpace(row.GroupCode)); code != "" {
			groupID, known := lookup.Groups[code]
			if !known {
				problems = append(problems, fmt.Sprintf("group %q not found", row.GroupCode))
			} else if lookup.CompanyGroups[companyID] != groupID {
				problems = append(problems, fmt.Sprintf("company %q is not in group %q", row.CompanyCode, row.GroupCode))
			}
		}
		if code := strings.ToLower(strings.TrimSpace(row.DivisionCode)); code != "" {
			divisionID, known := lookup.Divisions[divisionKey(companyID, code)]
			if !known {
				problems = append(problems, fmt.Sprintf("division %q not found", row.DivisionCode))
			}
			in.DivisionID = divisionID
		}
	}

	hire, err := localdate.ParseLocalDate(row.HireDate)
	if err != nil {
		problems = append(problems, "hireDate must be YYYY-MM-DD")
	}
	in.HireDate = hire
	if strings.TrimSpace(row.DateOfBirth) != "" {
		dob, err := localdate.ParseLocalDate(row.DateOfBirth)
		if err != nil {
			problems = append(problems, "dateOfBirth must be YYYY-MM-DD")
		} else {
			in.DateOfBirth = &dob
		}
	}

	salary, err := decimal.NewFromString(strings.TrimSpace(row.DailySalary))
	if err != nil || !salary.IsPositive() {
		problems = append(problems, "dailySalary must be a positive number")
	} else {
		in.DailySalary = salary.InexactFloat64()
	}

	if in.CURP != "" && !core.ValidCURP(in.CURP) {
		problems = append(problems, "curp is invalid")
	}
	if in.RFC != "" && !core.ValidRFC(in.RFC) {
		problems = append(problems, "rfc is invalid")
	}
	if in.NSS != "" && !core.ValidNSS(in.NSS) {
		problems = append(problems, "nss is invalid")
	}
	if in.PayFrequency == "" {
		in.PayFrequency = core.PayFrequencies[0]
	} else if !slices.Contains(core.PayFrequencies, in.PayFrequency) {
		problems = append(problems, fmt.Sprintf("payFrequency %q is invalid", row.PayFrequency))
	}

	if manager := strings.ToLower(strings.TrimSpace(row.ManagerEmail)); manager != "" {
		managerID, known := lookup.EmployeeEmails[manager]
		switch {
		case !known:
			problems = append(problems, fmt.Sprintf("manager %q not found", row.ManagerEmail))
		case managerID == "":
			// Created earlier in a dry run; nothing to link.
		default:
			in.ManagerID = managerID
		}
	}
	return in, roleID, problems
}

func hiringPayload(row Row, in core.EmployeeInput) []byte {
	payload := map[string]any{
		"email":          in.Email,
		"companyId":      in.CompanyID,
		"hireDate":       localdate.ToDateString(in.HireDate),
		"startDate":      localdate.ToDateString(in.HireDate),
		"qualifications": in.Qualifications,
		"dailySalary":    in.DailySalary,
		"jobTitle":       in.JobTitle,
		"role":           row.Role,
	}
	if in.DateOfBirth != nil {
		payload["dateOfBirth"] = localdate.ToDateString(*in.DateOfBirth)
	}
	var documents []string
	if in.CURP != "" {
		documents = append(documents, "CURP")
	}
	if in.RFC != "" {
		documents = append(documents, "RFC")
	}
	if in.NSS != "" {
		documents = append(documents, "NSS")
	}
	payload["documents"] = documents
	encoded, _ := json.Marshal(payload)
	return encoded
}

func policyReason(err *policy.DecisionError) string {
	findings := err.Evaluation.Violations
	if errors.Is(err, policy.ErrPolicyWarning) {
		findings = err.Evaluation.Warnings
	}
	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		parts = append(parts, f.Message)
	}
	if len(parts) == 0 {
		return err.Error()
	}
	return err.Error() + ": " + strings.Join(parts, "; ")
}
