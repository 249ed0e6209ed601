package handlers

import "github.com/gin-gonic/gin"

const (
	CodeOk                string = "OK"
	ErrCodeBadRequest     string = "ERR_BAD_REQUEST"
	ErrCodeUnknownError   string = "ERR_UNKNOWN_ERROR"
	ErrCodeNotFound       string = "ERR_NOT_FOUND"
	ErrCodeSyncBusy       string = "ERR_SYNC_BUSY"
	ErrCodeActionNotDone  string = "ERR_ACTION_NOT_DONE"
	ErrCodeClientNotReady string = "ERR_CLIENT_NOT_READY"
	ErrCodeStorageFailure string = "ERR_STORAGE_FAILURE"
)

type ControlPlaneResponse struct {
	Code string `json:"code"`
}

type ControlPlaneError struct {
	ErrorCode string `json:"code"`
	Error     string `json:"error"`
}

func AbortWithError(c *gin.Context, status int, code string, err error) {
	c.Abort()
	c.Error(err)
	c.PureJSON(status, ControlPlaneError{
		ErrorCode: code,
		Error:     err.Error(),
	})
}
