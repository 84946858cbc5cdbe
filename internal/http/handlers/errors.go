package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:     http.StatusBadRequest,
	domain.KindAuthentication: http.StatusUnauthorized,
	domain.KindAuthorization:  http.StatusForbidden,
	domain.KindNotFound:       http.StatusNotFound,
	domain.KindConflict:       http.StatusConflict,
	domain.KindDelivery:       http.StatusBadGateway,
	domain.KindInternal:       http.StatusInternalServerError,
}

// StatusFor maps an error onto its HTTP status
func StatusFor(err error) int {
	return kindStatus[domain.KindOf(err)]
}

// respondError is the single place where domain errors become HTTP responses.
// Internal error text is hidden in release mode.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	kind := domain.KindOf(err)
	status := kindStatus[kind]

	msg := err.Error()
	if kind == domain.KindInternal {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
		if gin.Mode() == gin.ReleaseMode {
			msg = "internal server error"
		}
	}
	c.JSON(status, gin.H{"message": msg})
}

// respondBindError reports a malformed request body
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": verrs[0].Field() + " is invalid (" + verrs[0].Tag() + ")"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
}

func orStandard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}
