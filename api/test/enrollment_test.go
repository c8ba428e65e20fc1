package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/dugsiiye/barasho/core/enrollment"
	"github.com/dugsiiye/barasho/validate"
)

func TestEnrollment(t *testing.T) {
	env, err := NewTestEnv(t, "enrollment_test")
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	if err := Login(env, env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}
	golang := createCourse(t, env, "Go for Beginners", 60, true)
	pricey := createCourse(t, env, "Advanced Systems", 100, true)
	draft := createCourse(t, env, "Unreleased Draft", 10, false)
	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	env.SetCredits(t, env.UserID, 100)
	if err := Login(env, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	t.Run("AccessBeforeEnroll", func(t *testing.T) {
		var res enrollment.AccessResult
		if code := env.doJSON(t, http.MethodGet, "/courses/"+golang.ID+"/access", nil, &res); code != http.StatusOK {
			t.Fatalf("status: got %d, exp %d", code, http.StatusOK)
		}
		if res.Allowed {
			t.Error("allowed: got true, exp false")
		}
		if res.Reason != enrollment.ReasonNotEnrolled {
			t.Errorf("reason: got %q, exp %q", res.Reason, enrollment.ReasonNotEnrolled)
		}
		if res.RequiredCredits != 60 {
			t.Errorf("required credits: got %d, exp 60", res.RequiredCredits)
		}
	})

	t.Run("EnrollDebitsCredits", func(t *testing.T) {
		var res enrollment.EnrollResult
		if code := env.doJSON(t, http.MethodPost, "/courses/"+golang.ID+"/enroll", nil, &res); code != http.StatusOK {
			t.Fatalf("status: got %d, exp %d", code, http.StatusOK)
		}
		if !res.Success {
			t.Fatalf("success: got false, error %q", res.Error)
		}
		if res.CreditsRemaining != 40 {
			t.Errorf("credits remaining: got %d, exp 40", res.CreditsRemaining)
		}
		if got := env.Credits(t, env.UserID); got != 40 {
			t.Errorf("stored credits: got %d, exp 40", got)
		}
	})

	t.Run("AccessAfterEnroll", func(t *testing.T) {
		var res enrollment.AccessResult
		env.doJSON(t, http.MethodGet, "/courses/"+golang.ID+"/access", nil, &res)
		if !res.Allowed || res.Reason != enrollment.ReasonEnrolled {
			t.Errorf("got allowed=%t reason=%q, exp allowed=true reason=%q", res.Allowed, res.Reason, enrollment.ReasonEnrolled)
		}
	})

	t.Run("DoubleEnrollDoesNotDebit", func(t *testing.T) {
		var res enrollment.EnrollResult
		if code := env.doJSON(t, http.MethodPost, "/courses/"+golang.ID+"/enroll", nil, &res); code != http.StatusOK {
			t.Fatalf("status: got %d, exp %d", code, http.StatusOK)
		}
		if res.Success {
			t.Error("success: got true, exp false")
		}
		if res.Error != "Already enrolled in this course" {
			t.Errorf("error: got %q, exp already-enrolled message", res.Error)
		}
		if got := env.Credits(t, env.UserID); got != 40 {
			t.Errorf("stored credits: got %d, exp 40", got)
		}
	})

	t.Run("InsufficientCreditsRejectedServerSide", func(t *testing.T) {
		var res enrollment.EnrollResult
		if code := env.doJSON(t, http.MethodPost, "/courses/"+pricey.ID+"/enroll", nil, &res); code != http.StatusOK {
			t.Fatalf("status: got %d, exp %d", code, http.StatusOK)
		}
		if res.Success {
			t.Error("success: got true, exp false")
		}
		if res.Error != "Insufficient credits" {
			t.Errorf("error: got %q, exp insufficient-credits message", res.Error)
		}
		if got := env.Credits(t, env.UserID); got != 40 {
			t.Errorf("stored credits: got %d, exp 40", got)
		}
	})

	t.Run("UnpublishedCourseFailsClosed", func(t *testing.T) {
		var res enrollment.AccessResult
		env.doJSON(t, http.MethodGet, "/courses/"+draft.ID+"/access", nil, &res)
		if res.Allowed || res.Reason != enrollment.ReasonCourseNotPublished {
			t.Errorf("got allowed=%t reason=%q, exp allowed=false reason=%q", res.Allowed, res.Reason, enrollment.ReasonCourseNotPublished)
		}

		if code := env.doJSON(t, http.MethodPost, "/courses/"+draft.ID+"/enroll", nil, nil); code != http.StatusNotFound {
			t.Errorf("enroll status: got %d, exp %d", code, http.StatusNotFound)
		}
	})

	t.Run("UnknownCourse", func(t *testing.T) {
		var res enrollment.AccessResult
		env.doJSON(t, http.MethodGet, "/courses/"+validate.GenerateID()+"/access", nil, &res)
		if res.Allowed || res.Reason != enrollment.ReasonCourseNotFound {
			t.Errorf("got allowed=%t reason=%q, exp allowed=false reason=%q", res.Allowed, res.Reason, enrollment.ReasonCourseNotFound)
		}
	})

	t.Run("ConcurrentEnrollDebitsOnce", func(t *testing.T) {
		if err := Logout(env); err != nil {
			t.Fatal(err)
		}
		if err := Login(env, env.AdminEmail, env.AdminPass); err != nil {
			t.Fatal(err)
		}
		c := createCourse(t, env, "Race Course", 20, true)
		if err := Logout(env); err != nil {
			t.Fatal(err)
		}
		if err := Login(env, env.UserEmail, env.UserPass); err != nil {
			t.Fatal(err)
		}
		before := env.Credits(t, env.UserID)

		results := make([]enrollment.EnrollResult, 2)
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = postEnroll(env, c.ID)
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("request %d: %v", i, err)
			}
		}

		var wins int
		for _, res := range results {
			if res.Success {
				wins++
			} else if res.Error != "Already enrolled in this course" {
				t.Errorf("loser error: got %q, exp already-enrolled message", res.Error)
			}
		}
		if wins != 1 {
			t.Errorf("winners: got %d, exp 1", wins)
		}
		if got := env.Credits(t, env.UserID); got != before-20 {
			t.Errorf("stored credits: got %d, exp %d", got, before-20)
		}
	})

	t.Run("AdminAccess", func(t *testing.T) {
		if err := Logout(env); err != nil {
			t.Fatal(err)
		}
		if err := Login(env, env.AdminEmail, env.AdminPass); err != nil {
			t.Fatal(err)
		}

		var res enrollment.AccessResult
		env.doJSON(t, http.MethodGet, "/courses/"+golang.ID+"/access", nil, &res)
		if !res.Allowed || res.Reason != enrollment.ReasonAdminAccess {
			t.Errorf("got allowed=%t reason=%q, exp allowed=true reason=%q", res.Allowed, res.Reason, enrollment.ReasonAdminAccess)
		}

		// unpublished wins over the admin bypass
		env.doJSON(t, http.MethodGet, "/courses/"+draft.ID+"/access", nil, &res)
		if res.Allowed || res.Reason != enrollment.ReasonCourseNotPublished {
			t.Errorf("draft: got allowed=%t reason=%q, exp allowed=false reason=%q", res.Allowed, res.Reason, enrollment.ReasonCourseNotPublished)
		}
	})

	t.Run("EnrollToZeroReportsRemaining", func(t *testing.T) {
		price := env.Credits(t, env.UserID)
		c := createCourse(t, env, "Balance Drainer", price, true)
		if err := Logout(env); err != nil {
			t.Fatal(err)
		}
		if err := Login(env, env.UserEmail, env.UserPass); err != nil {
			t.Fatal(err)
		}

		var body map[string]any
		if code := env.doJSON(t, http.MethodPost, "/courses/"+c.ID+"/enroll", nil, &body); code != http.StatusOK {
			t.Fatalf("status: got %d, exp %d", code, http.StatusOK)
		}
		if ok, _ := body["success"].(bool); !ok {
			t.Fatalf("success: got %v, exp true", body["success"])
		}
		remaining, present := body["credits_remaining"]
		if !present {
			t.Fatal("credits_remaining: field missing from success body")
		}
		if got, _ := remaining.(float64); got != 0 {
			t.Errorf("credits_remaining: got %v, exp 0", remaining)
		}
	})
}

// postEnroll is goroutine-safe; it reports failures as errors instead of
// touching testing.T.
func postEnroll(env *TestEnv, courseID string) (enrollment.EnrollResult, error) {
	var res enrollment.EnrollResult

	r, err := http.NewRequest(http.MethodPost, env.URL+"/courses/"+courseID+"/enroll", bytes.NewReader(nil))
	if err != nil {
		return res, err
	}

	w, err := env.Client().Do(r)
	if err != nil {
		return res, err
	}
	defer w.Body.Close()

	return res, json.NewDecoder(w.Body).Decode(&res)
}
