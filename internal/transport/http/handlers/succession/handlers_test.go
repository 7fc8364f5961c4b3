package successionhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"hris/internal/domain/auth"
	"hris/internal/domain/succession"
	"hris/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeStore struct {
	succession.StoreAPI
	assessed *succession.AssessmentInput
}

func (f *fakeStore) GetPlan(_ context.Context, _, id string) (succession.Plan, error) {
	if id != "p1" {
		return succession.Plan{}, succession.ErrPlanNotFound
	}
	return succession.Plan{ID: "p1", PositionTitle: "CFO", Criticality: succession.CriticalityHigh}, nil
}

func (f *fakeStore) ListCandidates(context.Context, string, string) ([]succession.Candidate, error) {
	return []succession.Candidate{
		{ID: "c1", EmployeeID: "ana", Readiness: succession.ReadyNow},
		{ID: "c2", EmployeeID: "leo", Readiness: succession.NotReady},
	}, nil
}

func (f *fakeStore) ListAssessments(context.Context, string, []string) ([]succession.Assessment, error) {
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	return []succession.Assessment{
		{CandidateID: "c1", Readiness: succession.Ready1To2Years, Score: 60, AssessedAt: jan},
		{CandidateID: "c1", Readiness: succession.ReadyNow, Score: 62, AssessedAt: jun},
		{CandidateID: "c2", Readiness: succession.NotReady, Score: 40, AssessedAt: jan},
	}, nil
}

func (f *fakeStore) GetCandidate(_ context.Context, _, id string) (succession.Candidate, error) {
	return succession.Candidate{ID: id}, nil
}

func (f *fakeStore) AddAssessment(_ context.Context, _, id string, in succession.AssessmentInput) (succession.Assessment, error) {
	f.assessed = &in
	return succession.Assessment{ID: "a1", CandidateID: id, Readiness: in.Readiness, Score: in.Score}, nil
}

func newRouter(store *fakeStore) http.Handler {
	h := NewHandler(succession.NewService(store), allowAll{}, nil)
	user := auth.UserContext{UserID: "u-hr", TenantID: "t1", RoleName: auth.RoleHR}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestGetPlanEmbedsTrends(t *testing.T) {
	rec := do(newRouter(&fakeStore{}), http.MethodGet, "/succession/plans/p1", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Equal(t, succession.TrendImproving, gjson.Get(body, "data.candidates.0.trend").String())
	assert.Equal(t, succession.TrendInsufficientData, gjson.Get(body, "data.candidates.1.trend").String())
	assert.Equal(t, int64(2), gjson.Get(body, "data.candidates.0.assessments.#").Int())
}

func TestGetMissingPlan(t *testing.T) {
	rec := do(newRouter(&fakeStore{}), http.MethodGet, "/succession/plans/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePlanRejectsUnknownCriticality(t *testing.T) {
	rec := do(newRouter(&fakeStore{}), http.MethodPost, "/succession/plans", `{"positionTitle":"CTO","criticality":"extreme"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "criticality", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}

func TestAssessRecordsAssessor(t *testing.T) {
	store := &fakeStore{}
	rec := do(newRouter(store), http.MethodPost, "/succession/candidates/c1/assessments", `{"readiness":"READY_NOW","score":80}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, store.assessed)
	assert.Equal(t, "u-hr", store.assessed.AssessedBy)
	assert.Equal(t, succession.ReadyNow, store.assessed.Readiness)
}

func TestAssessRejectsScoreOutOfRange(t *testing.T) {
	rec := do(newRouter(&fakeStore{}), http.MethodPost, "/succession/candidates/c1/assessments", `{"readiness":"ready_now","score":130}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "score", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}
