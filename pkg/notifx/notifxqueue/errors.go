package notifxqueue

import "github.com/roastery-dev/roastery/pkg/errx"

var queueErrors = errx.NewRegistry("NOTIFX_QUEUE")

var (
	ErrEnqueueFailed = queueErrors.Register("ENQUEUE_FAILED", errx.TypeExternal, 500, "Failed to enqueue email")
)
