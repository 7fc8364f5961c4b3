package feedbackhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"hris/internal/domain/auth"
	"hris/internal/domain/feedback"
	"hris/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeAccess struct {
	self map[string]string
}

func (f fakeAccess) EmployeeIDByUserID(_ context.Context, _, userID string) (string, error) {
	return f.self[userID], nil
}

func (f fakeAccess) CanAccess(_ context.Context, viewer auth.UserContext, employeeID string) (bool, error) {
	return viewer.IsHR() || f.self[viewer.UserID] == employeeID, nil
}

type fakeStore struct {
	feedback.StoreAPI
	requests map[string]feedback.Request
	pending  []feedback.Request
}

func (f *fakeStore) GetRequest(_ context.Context, _, id string) (feedback.Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return feedback.Request{}, feedback.ErrRequestNotFound
	}
	return req, nil
}

func (f *fakeStore) ListPendingRequests(_ context.Context, _, reviewer string) ([]feedback.Request, error) {
	var out []feedback.Request
	for _, req := range f.pending {
		if req.ReviewerEmployeeID == reviewer {
			out = append(out, req)
		}
	}
	return out, nil
}

func newRouter(store *fakeStore, user auth.UserContext) http.Handler {
	access := fakeAccess{self: map[string]string{"u-ana": "ana", "u-leo": "leo"}}
	h := NewHandler(feedback.NewService(store), access, allowAll{}, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

var ana = auth.UserContext{UserID: "u-ana", TenantID: "t1", RoleName: auth.RoleEmployee}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestSubmitAsOtherReviewerIsForbidden(t *testing.T) {
	store := &fakeStore{requests: map[string]feedback.Request{
		"r1": {ID: "r1", ReviewerEmployeeID: "leo", RatingScale: "1-5", Status: feedback.RequestStatusPending, CycleStatus: feedback.CycleStatusActive},
	}}
	rec := do(newRouter(store, ana), http.MethodPost, "/feedback/requests/r1/submit", `{"rating":4}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitRequiresRating(t *testing.T) {
	rec := do(newRouter(&fakeStore{}, ana), http.MethodPost, "/feedback/requests/r1/submit", `{"comments":"great"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "rating", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}

func TestPendingRequestsAreTheCallers(t *testing.T) {
	store := &fakeStore{pending: []feedback.Request{
		{ID: "r1", ReviewerEmployeeID: "ana"},
		{ID: "r2", ReviewerEmployeeID: "leo"},
	}}
	rec := do(newRouter(store, ana), http.MethodGet, "/feedback/requests/pending", "")

	require.Equal(t, http.StatusOK, rec.Code)
	ids := gjson.Get(rec.Body.String(), "data.#.id").Array()
	require.Len(t, ids, 1)
	assert.Equal(t, "r1", ids[0].String())
}

func TestResultsForSomeoneElseAreForbidden(t *testing.T) {
	rec := do(newRouter(&fakeStore{}, ana), http.MethodGet, "/feedback/cycles/c1/results?employeeId=leo", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignReviewersValidatesRelationship(t *testing.T) {
	hr := auth.UserContext{UserID: "u-hr", TenantID: "t1", RoleName: auth.RoleHR}
	body := `{"subjectEmployeeId":"ana","assignments":[{"reviewerEmployeeId":"leo","relationship":"friend"}]}`
	rec := do(newRouter(&fakeStore{}, hr), http.MethodPost, "/feedback/cycles/c1/requests", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "assignments.relationship", gjson.Get(rec.Body.String(), "error.details.fields.0.field").String())
}
