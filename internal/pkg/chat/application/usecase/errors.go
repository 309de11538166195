package usecase

import "errors"

var (
	// ErrPersistence indicates an infrastructure/repository failure inside a
	// use case. The initiating action may retry.
	ErrPersistence = errors.New("chat use case persistence error")
	// ErrDispatch indicates the translation pipeline was unreachable at
	// hand-off time. Invisible to users; the queue retries with backoff and
	// the message stays pending meanwhile.
	ErrDispatch = errors.New("chat use case dispatch error")
	// ErrPipelineRejected indicates the pipeline refused the content.
	// Terminal for the message unless explicitly retried.
	ErrPipelineRejected = errors.New("chat use case pipeline rejection")
)
