package shared

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks request outcomes and named counters for one component
type ServiceMetrics struct {
	ServiceName           string           `json:"service_name"`
	TotalRequests         int64            `json:"total_requests"`
	SuccessfulRequests    int64            `json:"successful_requests"`
	FailedRequests        int64            `json:"failed_requests"`
	TotalProcessingTime   time.Duration    `json:"total_processing_time"`
	AverageProcessingTime time.Duration    `json:"average_processing_time"`
	Counters              map[string]int64 `json:"counters"`
	mutex                 sync.RWMutex
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		ServiceName: serviceName,
		Counters:    make(map[string]int64),
	}
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRequests++
	m.TotalProcessingTime += processingTime
	m.AverageProcessingTime = time.Duration(int64(m.TotalProcessingTime) / m.TotalRequests)

	if success {
		m.SuccessfulRequests++
	} else {
		m.FailedRequests++
	}
}

// IncrementCounter increments a named counter
func (m *ServiceMetrics) IncrementCounter(key string) {
	m.AddToCounter(key, 1)
}

// AddToCounter adds delta to a named counter
func (m *ServiceMetrics) AddToCounter(key string, delta int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Counters[key] += delta
}

// Counter returns the value of a named counter
func (m *ServiceMetrics) Counter(key string) int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.Counters[key]
}

// LogSummary logs the collected metrics at debug level
func (m *ServiceMetrics) LogSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	fields := logrus.Fields{
		"component":       m.ServiceName,
		"total_requests":  m.TotalRequests,
		"successful":      m.SuccessfulRequests,
		"failed":          m.FailedRequests,
		"average_latency": m.AverageProcessingTime,
	}
	if m.TotalRequests > 0 {
		fields["success_rate"] = fmt.Sprintf("%.1f%%", float64(m.SuccessfulRequests)/float64(m.TotalRequests)*100)
	}

	keys := make([]string, 0, len(m.Counters))
	for key := range m.Counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fields[key] = m.Counters[key]
	}

	logrus.WithFields(fields).Debug("Metrics summary")
}
