package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDangerWipe(t *testing.T) {
	env := newTestEnv()
	member := env.seedFaculty(t, "F001", "Dr. Alan Turing", "3210")
	facultyToken := env.facultyToken(t, member)
	adminToken := env.adminToken(t)

	t.Run("faculty may not enter the danger zone", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"entity": "faculty", "danger_password": "dangerpass"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/danger/wipe-request", facultyToken, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong danger password", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"entity": "faculty", "danger_password": "nope"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/danger/wipe-request", adminToken, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown entity", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"entity": "everything", "danger_password": "dangerpass"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/danger/wipe-request", adminToken, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wipe without confirmation token", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"entity": "faculty", "danger_password": "dangerpass"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/danger/wipe", adminToken, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("two-step wipe deletes the records", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"entity": "faculty", "danger_password": "dangerpass"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/danger/wipe-request", adminToken, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		var confirm confirmResponse
		env.decode(t, rec, &confirm)
		assert.Equal(t, "faculty", confirm.TargetKey)

		body = marchallObj(t, map[string]string{
			"entity": "faculty", "danger_password": "dangerpass", "confirm_token": confirm.ID,
		})
		req, rec = newAuthRequest(http.MethodPost, "/v1/danger/wipe", adminToken, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		members, err := env.deps.FacultySvc.QueryAll(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("a token confirms only its own entity", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"entity": "students", "danger_password": "dangerpass"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/danger/wipe-request", adminToken, body)
		env.do(req, rec)
		var confirm confirmResponse
		env.decode(t, rec, &confirm)

		body = marchallObj(t, map[string]string{
			"entity": "courses", "danger_password": "dangerpass", "confirm_token": confirm.ID,
		})
		req, rec = newAuthRequest(http.MethodPost, "/v1/danger/wipe", adminToken, body)
		env.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDangerWipe_disabledWhenUnconfigured(t *testing.T) {
	env := newTestEnv()
	env.conf.DangerZone.Password = ""

	body := marchallObj(t, map[string]string{"entity": "faculty", "danger_password": ""})
	req, rec := newAuthRequest(http.MethodPost, "/v1/danger/wipe-request", env.adminToken(t), body)
	env.do(req, rec)
	// the blank password fails required-field validation before the gate
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = marchallObj(t, map[string]string{"entity": "faculty", "danger_password": "anything"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/danger/wipe-request", env.adminToken(t), body)
	env.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
