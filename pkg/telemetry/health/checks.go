package health

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Counter reports a number of configured items.
type Counter interface {
	Len() int
}

// Runner reports whether a background component is running.
type Runner interface {
	IsRunning() bool
}

// AccountsCheck fails when the pool has no accounts.
func AccountsCheck(pool Counter) CheckFunc {
	return func(context.Context) error {
		if pool.Len() == 0 {
			return errors.New("no upstream accounts configured")
		}
		return nil
	}
}

// DirCheck fails unless dir exists, is a directory and accepts new files.
func DirCheck(dir string) CheckFunc {
	return func(context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return fmt.Errorf("directory not writable: %w", err)
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(name)
	}
}

// RunningCheck fails while r is not running.
func RunningCheck(r Runner) CheckFunc {
	return func(context.Context) error {
		if !r.IsRunning() {
			return errors.New("not running")
		}
		return nil
	}
}
