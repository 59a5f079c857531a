package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Ticker is a repeating timer owned by whoever created it.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates tickers so per-session timers can be faked in tests.
type TickerFactory interface {
	NewTicker(d time.Duration) Ticker
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }

func (s systemTicker) Stop() { s.t.Stop() }
