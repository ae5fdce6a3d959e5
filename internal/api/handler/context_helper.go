package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"matriz-curricular/backend/internal/authz"
	"matriz-curricular/backend/pkg/response"
)

// MustGetCaller extracts the identity JWTAuth put in the context. On
// failure it writes a 401 and returns false; the caller should return.
func MustGetCaller(c *gin.Context) (authz.Caller, bool) {
	userID, ok1 := contextString(c, "user_id")
	tenantID, ok2 := contextString(c, "tenant_id")
	role, ok3 := contextString(c, "role")
	if !ok1 || !ok2 || !ok3 {
		response.Unauthorized(c, 10002, "not authenticated")
		return authz.Caller{}, false
	}
	return authz.Caller{UserID: userID, TenantID: tenantID, Role: role}, true
}

// MustGetMatrixID returns the :id path parameter. Matrix ids are UUIDs; any
// other value cannot name a matrix, so it is answered with a 404.
func MustGetMatrixID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.NotFound(c, 17001, "matrix not found")
		return "", false
	}
	return id, true
}

func contextString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
