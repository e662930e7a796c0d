package httpapi_test

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/esmailgumaan/contact_svc/internal/httpapi"
	"github.com/esmailgumaan/contact_svc/internal/model"
	"github.com/esmailgumaan/contact_svc/internal/storage"
)

func basicAuthHeaderValue(username string, password string) string {
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + credentials
}

func adminAuthHeaders() map[string]string {
	return map[string]string{"Authorization": basicAuthHeaderValue(testAdminUsername, testAdminPassword)}
}

func seedContacts(testingT *testing.T, api apiHarness, contactCount int) {
	testingT.Helper()
	for contactIndex := 0; contactIndex < contactCount; contactIndex++ {
		seededContact := model.Contact{
			ID:        storage.NewID(),
			Name:      fmt.Sprintf("Visitor %d", contactIndex),
			Email:     fmt.Sprintf("visitor%d@example.com", contactIndex),
			Message:   fmt.Sprintf("message %d", contactIndex),
			CreatedAt: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(contactIndex) * time.Minute),
			IPHash:    "0000000000000000000000000000000000000000000000000000000000000000",
			Consent:   true,
		}
		require.NoError(testingT, api.database.Create(&seededContact).Error)
	}
}

func TestAdminEndpointsRequireCredentials(t *testing.T) {
	api := buildAPIHarness(t)

	missingCredentials := performJSONRequest(t, api.router, http.MethodGet, "/admin/inbox", nil, nil)
	require.Equal(t, http.StatusUnauthorized, missingCredentials.Code)
	require.Contains(t, missingCredentials.Header().Get("WWW-Authenticate"), "Basic")

	wrongPassword := performJSONRequest(t, api.router, http.MethodGet, "/admin/inbox", nil, map[string]string{
		"Authorization": basicAuthHeaderValue(testAdminUsername, "wrong-password"),
	})
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)

	wrongUsername := performJSONRequest(t, api.router, http.MethodGet, "/api/admin/contacts", nil, map[string]string{
		"Authorization": basicAuthHeaderValue("intruder", testAdminPassword),
	})
	require.Equal(t, http.StatusUnauthorized, wrongUsername.Code)
}

func TestAdminEndpointsUnavailableWithoutConfiguredCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(httpapi.AdminBasicAuthMiddleware("", ""))
	router.GET("/admin/inbox", func(context *gin.Context) { context.Status(http.StatusOK) })

	request := httptest.NewRequest(http.MethodGet, "/admin/inbox", nil)
	request.Header.Set("Authorization", basicAuthHeaderValue("anyone", "anything"))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestRenderInboxShowsStoredContacts(t *testing.T) {
	api := buildAPIHarness(t)
	seedContacts(t, api, 3)

	response := performJSONRequest(t, api.router, http.MethodGet, "/admin/inbox", nil, adminAuthHeaders())
	require.Equal(t, http.StatusOK, response.Code)
	require.Contains(t, response.Header().Get("Content-Type"), "text/html")

	renderedPage := response.Body.String()
	require.Contains(t, renderedPage, "Visitor 0")
	require.Contains(t, renderedPage, "visitor2@example.com")
	require.Contains(t, renderedPage, "Total Messages")
}

func TestRenderInboxEmptyState(t *testing.T) {
	api := buildAPIHarness(t)

	response := performJSONRequest(t, api.router, http.MethodGet, "/admin/inbox", nil, adminAuthHeaders())
	require.Equal(t, http.StatusOK, response.Code)
	require.Contains(t, response.Body.String(), "No contact messages yet.")
}

func TestListContactsReturnsNewestFirst(t *testing.T) {
	api := buildAPIHarness(t)
	seedContacts(t, api, 3)

	response := performJSONRequest(t, api.router, http.MethodGet, "/api/admin/contacts", nil, adminAuthHeaders())
	require.Equal(t, http.StatusOK, response.Code)

	var responseBody struct {
		Contacts []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"contacts"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &responseBody))
	require.Equal(t, int64(3), responseBody.Total)
	require.Len(t, responseBody.Contacts, 3)
	require.Equal(t, "Visitor 2", responseBody.Contacts[0].Name)
	require.Equal(t, "Visitor 0", responseBody.Contacts[2].Name)
}

func TestListContactsHonorsLimitParameter(t *testing.T) {
	api := buildAPIHarness(t)
	seedContacts(t, api, 4)

	response := performJSONRequest(t, api.router, http.MethodGet, "/api/admin/contacts?limit=2", nil, adminAuthHeaders())
	require.Equal(t, http.StatusOK, response.Code)

	var responseBody struct {
		Contacts []struct {
			Name string `json:"name"`
		} `json:"contacts"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &responseBody))
	require.Len(t, responseBody.Contacts, 2)
	require.Equal(t, "Visitor 3", responseBody.Contacts[0].Name)
}
