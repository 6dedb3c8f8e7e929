package lifecycle

import "fmt"

type HealthStatus struct {
	Healthy            bool     `json:"healthy"`
	Running            bool     `json:"running"`
	PublisherConnected bool     `json:"publisher_connected"`
	Pending            int      `json:"pending"`
	Errors             []string `json:"errors,omitempty"`
}

// connectionChecker is implemented by publishers that hold a connection.
type connectionChecker interface {
	Connected() bool
}

// Health reports whether events are flowing: the worker must be running,
// the publisher connected and the queue below 90% of its capacity.
func (d *Dispatcher) Health() HealthStatus {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()

	status := HealthStatus{
		Healthy:            true,
		Running:            running,
		PublisherConnected: true,
		Pending:            len(d.queue),
	}

	if !running {
		status.Healthy = false
		status.Errors = append(status.Errors, "dispatcher not running")
	}
	if cc, ok := d.publisher.(connectionChecker); ok && !cc.Connected() {
		status.PublisherConnected = false
		status.Healthy = false
		status.Errors = append(status.Errors, "publisher disconnected")
	}
	if status.Pending*10 >= cap(d.queue)*9 {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("queue nearly full: %d/%d", status.Pending, cap(d.queue)))
	}
	return status
}
