package usbiface

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/link"
)

// DefaultPollInterval is the interval the host polls IN reports.
const DefaultPollInterval = 8 * time.Millisecond

// ErrNoReport is returned reading an OUT report when none is pending.
var ErrNoReport = errors.New("no OUT report")

// ReportHandler is called with the IN reports received by a host.
type ReportHandler interface {
	HandleReport(link.Report)
}

// HandleReportFunc is func type of ReportHandler.
type HandleReportFunc func(link.Report)

// HandleReport implements ReportHandler.
func (f HandleReportFunc) HandleReport(r link.Report) {
	f(r)
}

// Endpoint is a simulated HID endpoint shared by a Device and a Host.
type Endpoint struct {
	Handler ReportHandler

	configured bool
	inReady    bool
	out        [][]byte
	reports    uint64
	lock       sync.Mutex
}

// NewEndpoint creates an unconfigured Endpoint.
func NewEndpoint(h ReportHandler) *Endpoint {
	return &Endpoint{Handler: h}
}

// Configure marks the device configured by the host.
func (e *Endpoint) Configure() {
	e.lock.Lock()
	e.configured = true
	e.lock.Unlock()
}

// RequestIN polls the next IN report. Polls are not queued.
func (e *Endpoint) RequestIN() {
	e.lock.Lock()
	e.inReady = e.configured
	e.lock.Unlock()
}

// SendOUT queues an OUT report from the host.
func (e *Endpoint) SendOUT(report []byte) {
	e.lock.Lock()
	e.out = append(e.out, append([]byte(nil), report...))
	e.lock.Unlock()
}

// Reports returns the number of IN reports delivered.
func (e *Endpoint) Reports() uint64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.reports
}

// Configured implements HIDEndpoint.
func (e *Endpoint) Configured() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.configured
}

// OutReceived implements HIDEndpoint.
func (e *Endpoint) OutReceived() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.out) > 0
}

// ReadOutReport implements HIDEndpoint.
func (e *Endpoint) ReadOutReport() ([]byte, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.out) == 0 {
		return nil, ErrNoReport
	}
	report := e.out[0]
	e.out = e.out[1:]
	return report, nil
}

// InReady implements HIDEndpoint.
func (e *Endpoint) InReady() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.inReady
}

// WriteReport implements HIDEndpoint.
func (e *Endpoint) WriteReport(r link.Report) error {
	e.lock.Lock()
	e.inReady = false
	e.reports++
	handler := e.Handler
	e.lock.Unlock()
	if handler != nil {
		handler.HandleReport(r)
	}
	return nil
}

// Host polls an Endpoint at a fixed interval in real time.
type Host struct {
	Endpoint *Endpoint
	Interval time.Duration
}

// NewHost creates a Host polling every DefaultPollInterval.
func NewHost(e *Endpoint) *Host {
	return &Host{Endpoint: e, Interval: DefaultPollInterval}
}

// Run implements framework.Runnable.
func (h *Host) Run(ctx context.Context) error {
	h.Endpoint.Configure()
	glog.Info("host: device configured")
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.Endpoint.RequestIN()
		}
	}
}

// ReportLogger logs IN reports when they change.
type ReportLogger struct {
	last  link.Report
	count int
	lock  sync.Mutex
}

// HandleReport implements ReportHandler.
func (l *ReportLogger) HandleReport(r link.Report) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.count > 0 && r == l.last {
		l.count++
		return
	}
	if l.count > 0 {
		glog.Infof("host: %s x%d", l.last.Frame(), l.count)
	}
	l.last, l.count = r, 1
}
