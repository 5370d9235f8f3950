package application

import "errors"

var ErrBadRequest = errors.New("bad request")
var ErrRunInProgress = errors.New("daily record already running")
