package rest

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/errors"
	"github.com/minerva/erp/pkg/models"
	"github.com/minerva/erp/pkg/query"
)

// GetUserFromContext extracts the authenticated user from gin.Context
func GetUserFromContext(c *gin.Context) *auth.UserSession {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := value.(auth.UserSession)
	if !ok {
		return nil
	}
	return &user
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	resp := errors.ToResponse(err)

	switch {
	case code >= 500:
		log.Printf("❌ ERROR [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, resp.Message)
	case errors.IsUnauthorized(err), errors.IsPermission(err):
		log.Printf("🔒 DENIED [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, resp.Message)
	case errors.IsConflict(err):
		log.Printf("⚠️ CONFLICT %s %s: %s", c.Request.Method, c.Request.URL.Path, resp.Message)
	}

	body := gin.H{
		constants.ResponseError: resp.Message,
		constants.FieldMessage:  resp.Message,
		"code":                  resp.Code,
		"data":                  nil,
	}
	if resp.Details != nil {
		body["details"] = resp.Details
	}
	c.JSON(code, body)
}

// RespondError sends an error with an explicit status
func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
		"data":                  nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// RequireUser returns the authenticated user or responds 401.
func RequireUser(c *gin.Context) (*auth.UserSession, bool) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not authenticated"))
		return nil, false
	}
	return user, true
}

// IntParam parses a positive integer path parameter or responds 400.
func IntParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 1 {
		RespondAppError(c, errors.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return n, true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleCreateEnvelope executes a create action and returns the result wrapped + message
// Response: { constants.FieldMessage: successMsg, [key]: result }
func HandleCreateEnvelope(c *gin.Context, key string, successMsg string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{constants.FieldMessage: successMsg, key: result})
}

// HandleUpdateEnvelope executes an update action and returns the result wrapped + message
// Response: { constants.FieldMessage: successMsg, [key]: result }
func HandleUpdateEnvelope(c *gin.Context, key string, successMsg string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg, key: result})
}

// HandleDeleteEnvelope executes a delete action and returns a success message
// Response: { constants.FieldMessage: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg})
}

// QueryRequestFromContext reads ?filter=, ?sort=, ?dir= and ?limit= into a QueryRequest.
func QueryRequestFromContext(c *gin.Context) (models.QueryRequest, bool) {
	req := models.QueryRequest{
		Filters:       c.QueryArray("filter"),
		SortField:     c.Query("sort"),
		SortDirection: c.Query("dir"),
	}
	if req.SortField != "" && !query.IsIdentifier(req.SortField) {
		RespondAppError(c, errors.NewValidationError("sort", "must be a column name"))
		return req, false
	}
	switch strings.ToUpper(req.SortDirection) {
	case "", "ASC", "DESC":
	default:
		RespondAppError(c, errors.NewValidationError("dir", "must be ASC or DESC"))
		return req, false
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			RespondAppError(c, errors.NewValidationError("limit", "must be a non-negative integer"))
			return req, false
		}
		req.Limit = limit
	}
	return req, true
}
