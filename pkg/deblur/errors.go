package deblur

import "errors"

var (
	ErrEmptyImageURL  = errors.New("image url is required")
	ErrEmptyRequestID = errors.New("request id is required")
	ErrMissingAPIKey  = errors.New("deblur API key is required")
	ErrRequestFailed  = errors.New("deblur API request failed")
	ErrJobNotFound    = errors.New("deblur job not found")
	ErrJobFailed      = errors.New("deblur job failed")
)
