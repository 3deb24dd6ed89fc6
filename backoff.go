package figmadl

import (
	"crypto/rand"
	"encoding/binary"
	mathRand "math/rand"
	"time"
)

// CalculateBackoffDelay вычисляет задержку перед повторной попыткой после 429:
// baseDelay * 2^attempt плюс случайный джиттер в диапазоне [0, maxJitter).
// attempt — нулевой индекс только что завершившейся попытки. Джиттер
// рассинхронизирует повторы конкурирующих вызовов, получивших 429 одновременно.
func CalculateBackoffDelay(attempt int, baseDelay, maxJitter time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}

	return delay + backoffJitter(maxJitter)
}

// ProactiveThrottleDelay вычисляет превентивную задержку перед запросом,
// когда счётчик недавних троттлингов положителен: count * step с потолком max.
// Потолок гарантирует, что затянувшаяся серия 429 не заморозит клиент навсегда.
func ProactiveThrottleDelay(count int, step, max time.Duration) time.Duration {
	if count <= 0 {
		return 0
	}

	delay := time.Duration(count) * step
	if delay > max {
		delay = max
	}
	return delay
}

// backoffJitter возвращает случайную добавку в диапазоне [0, maxJitter).
func backoffJitter(maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 {
		return 0
	}
	return time.Duration(getSecureRandom().Int63n(int64(maxJitter)))
}

// getSecureRandom создаёт генератор случайных чисел с криптографически
// стойким seed. При ошибке чтения энтропии откатывается на текущее время.
func getSecureRandom() *mathRand.Rand {
	var seedBytes [8]byte
	if _, err := rand.Read(seedBytes[:]); err != nil {
		return mathRand.New(mathRand.NewSource(time.Now().UnixNano()))
	}

	seed := int64(binary.BigEndian.Uint64(seedBytes[:]))
	return mathRand.New(mathRand.NewSource(seed))
}
