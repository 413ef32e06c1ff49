package presenter

// Semaphore is the traffic-light colour shown next to a queue row.
type Semaphore string

const (
	SemaphoreGreen   Semaphore = "green"
	SemaphoreYellow  Semaphore = "yellow"
	SemaphoreRed     Semaphore = "red"
	SemaphoreUnknown Semaphore = "unknown"
)

// DefaultThreshold is the container count at which a row turns red.
const DefaultThreshold = 3

// Classify colours a container count: none needed is green, below threshold
// yellow, at or above threshold red. A nil count (no usable pack) is unknown.
func Classify(containers *int, threshold int) Semaphore {
	if containers == nil {
		return SemaphoreUnknown
	}
	switch {
	case *containers <= 0:
		return SemaphoreGreen
	case *containers < threshold:
		return SemaphoreYellow
	default:
		return SemaphoreRed
	}
}

// Urgent reports whether the colour flags the row for immediate attention.
func (s Semaphore) Urgent() bool {
	return s == SemaphoreRed
}
