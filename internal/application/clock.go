package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FrozenClock selalu balikin waktu yang sama, untuk test
type FrozenClock struct {
	T time.Time
}

func (c FrozenClock) Now() time.Time { return c.T }
