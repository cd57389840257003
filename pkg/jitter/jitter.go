// Package jitter добавляет случайность в интервалы повторов, чтобы клиенты не повторяли запросы синхронно.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает d, увеличенную на случайную долю в пределах jitterFactor.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	return DurationWithRand(d, jitterFactor, rand.Float64)
}

// DurationWithRand — то же, что Duration, но с заданным источником чисел из [0, 1).
func DurationWithRand(d time.Duration, jitterFactor float64, float64Fn func() float64) time.Duration {
	if d <= 0 || jitterFactor <= 0 {
		return d
	}
	return d + time.Duration(float64Fn()*jitterFactor*float64(d))
}

// ExponentialBackoff возвращает задержку перед попыткой attempt (с нуля):
// base*2^attempt, ограниченную max, плюс джиттер.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(backoff(base, max, attempt), jitterFactor)
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	return min(d, max)
}
