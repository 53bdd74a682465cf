package retry

import (
	"time"

	"github.com/wb-go/wbf/retry"
)

// DefaultStrategy is used for database and queue operations.
var DefaultStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    2 * time.Second,
	Backoff:  2.0,
}
