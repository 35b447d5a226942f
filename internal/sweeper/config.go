package sweeper

import "time"

type Config struct {
	IntervalSeconds    int
	StuckGraceMinutes  int
	PipelineMaxAttempts int
}

func DefaultConfig() Config {
	return Config{
		IntervalSeconds:     120,
		StuckGraceMinutes:   10,
		PipelineMaxAttempts: 3,
	}
}

func (c Config) interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c Config) graceWindow() time.Duration {
	return time.Duration(c.StuckGraceMinutes) * time.Minute
}
