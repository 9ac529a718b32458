package providers

import "time"

// shutdownTimeout bounds graceful shutdown of every handle in the container.
const shutdownTimeout = 30 * time.Second
