package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
)

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type resource struct {
	name  string
	close Func
}

// Closer закрывает зарегистрированные ресурсы в порядке, обратном регистрации (LIFO).
type Closer struct {
	resources     []resource
	mu            sync.Mutex
	once          sync.Once
	err           error
	forcedTimeout time.Duration
	logger        logger.Logger
}

// NewCloser создает новый экземпляр Closer.
// forcedTimeout — время на принудительное закрытие оставшихся ресурсов, если ctx в Close истёк.
func NewCloser(forcedTimeout time.Duration, logger logger.Logger) *Closer {
	const defaultForcedTimeout = 2 * time.Second

	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{
		forcedTimeout: forcedTimeout,
		logger:        logger,
	}
}

// Add регистрирует ресурс под именем, которое попадёт в лог и в текст ошибки.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, resource{name: name, close: f})
}

// AddFunc регистрирует закрытие, не принимающее контекст и не возвращающее ошибку (например, pool.Close).
func (c *Closer) AddFunc(name string, f func()) {
	c.Add(name, func(context.Context) error {
		f()
		return nil
	})
}

// Close закрывает ресурсы по одному в порядке LIFO. Если ctx истекает раньше,
// оставшиеся ресурсы закрываются параллельно с forcedTimeout.
// Повторные вызовы возвращают результат первого.
func (c *Closer) Close(ctx context.Context) error {
	c.once.Do(func() {
		c.mu.Lock()
		resources := make([]resource, len(c.resources))
		copy(resources, c.resources)
		c.mu.Unlock()

		remaining, errs := c.gracefulClose(ctx, resources)
		if len(remaining) > 0 {
			c.logger.Warnf("shutdown interrupted after %d/%d resources, forcing the rest",
				len(resources)-len(remaining), len(resources))
			errs = append(errs, c.forcedClose(remaining)...)
		}

		c.err = errors.Join(errs...)
	})

	return c.err
}

// gracefulClose возвращает ресурсы, до которых не дошла очередь из-за отмены ctx.
func (c *Closer) gracefulClose(ctx context.Context, resources []resource) ([]resource, []error) {
	var errs []error
	for i := len(resources) - 1; i >= 0; i-- {
		r := resources[i]
		done := make(chan error, 1)

		go func() {
			done <- r.close(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				c.logger.Errorf(err, "failed to close %s", r.name)
				errs = append(errs, fmt.Errorf("close %s: %w", r.name, err))
				continue
			}
			c.logger.Infof("%s closed", r.name)
		case <-ctx.Done():
			return resources[:i+1], errs
		}
	}

	return nil, errs
}

func (c *Closer) forcedClose(resources []resource) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, r := range resources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.close(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("forced close %s: %w", r.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
