package repository

import "errors"

var (
	ErrJobNotFound       = errors.New("audit job not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrQueueFull         = errors.New("audit queue is full")

	ErrBrowserLaunch    = errors.New("browser launch failed")
	ErrPoolClosed       = errors.New("browser pool is shut down")
	ErrNavigationFailed = errors.New("navigation failed")
	ErrPageTimeout      = errors.New("page load timed out")
	ErrLighthouse       = errors.New("lighthouse run failed")
)
