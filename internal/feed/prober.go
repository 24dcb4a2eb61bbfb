package feed

import (
	"context"
	"runtime"
	"sync"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"
)

// ProberConfig controls the connectivity check against the PLC gateway.
type ProberConfig struct {
	Target   string
	Interval time.Duration
	Timeout  time.Duration
	Count    int
}

// Prober periodically pings the PLC gateway to distinguish "upstream
// is quiet" from "network is down". Its last verdict feeds the system
// status surface.
type Prober struct {
	cfg    ProberConfig
	logger *zap.Logger

	mu          sync.RWMutex
	reachable   bool
	lastChecked time.Time

	onChange func(reachable bool)
}

// NewProber creates a connectivity prober. onChange, if non-nil, is
// invoked each time reachability flips.
func NewProber(cfg ProberConfig, logger *zap.Logger, onChange func(bool)) *Prober {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Count <= 0 {
		cfg.Count = 1
	}
	return &Prober{
		cfg:      cfg,
		logger:   logger.Named("prober"),
		onChange: onChange,
	}
}

// Reachable reports the last probe verdict and when it was taken.
func (p *Prober) Reachable() (bool, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reachable, p.lastChecked
}

// Run probes immediately and then on every tick until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) {
	if p.cfg.Target == "" {
		p.logger.Info("no probe target configured, connectivity probing disabled")
		return
	}

	p.probe(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Prober) probe(ctx context.Context) {
	alive := p.pingOnce(ctx)

	p.mu.Lock()
	flipped := alive != p.reachable
	p.reachable = alive
	p.lastChecked = time.Now()
	p.mu.Unlock()

	if flipped {
		p.logger.Info("gateway reachability changed",
			zap.String("target", p.cfg.Target),
			zap.Bool("reachable", alive))
		if p.onChange != nil {
			p.onChange(alive)
		}
	}
}

func (p *Prober) pingOnce(ctx context.Context) bool {
	pinger, err := probing.NewPinger(p.cfg.Target)
	if err != nil {
		p.logger.Debug("failed to create pinger",
			zap.String("target", p.cfg.Target), zap.Error(err))
		return false
	}
	pinger.Count = p.cfg.Count
	pinger.Timeout = p.cfg.Timeout
	pinger.SetPrivileged(runtime.GOOS == "windows")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if runErr := pinger.Run(); runErr != nil {
			p.logger.Debug("ping failed",
				zap.String("target", p.cfg.Target), zap.Error(runErr))
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		pinger.Stop()
		return false
	}

	return pinger.Statistics().PacketsRecv > 0
}
