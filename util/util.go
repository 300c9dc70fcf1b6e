package util

// AsyncNotify signals ch without blocking. Pending signals coalesce.
func AsyncNotify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// SendLatest delivers v on ch, evicting the oldest queued value when ch is full.
// Slow consumers therefore always see the newest values.
func SendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
