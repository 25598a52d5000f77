// FILE: cmd/chesspipe/pid.go
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// pidFile records the process id of a run or server. With lock set the
// file stays flock'ed until release, so a second instance using the same
// path fails fast instead of writing the same outputs.
type pidFile struct {
	path string
	file *os.File
	lock bool
}

func acquirePIDFile(path string, lock bool) (*pidFile, error) {
	previous, alive := recordedPID(path)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open PID file: %w", err)
	}

	if lock {
		if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			file.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				return nil, fmt.Errorf("cannot acquire lock on %s: another instance is running", path)
			}
			return nil, fmt.Errorf("lock failed: %w", err)
		}
	}

	// The lock is authoritative; the recorded pid is only reported
	switch {
	case previous > 0 && alive && !lock:
		log.Printf("Warning: PID file %s belongs to running process %d, overwriting", path, previous)
	case previous > 0 && !alive:
		log.Printf("Replacing stale PID file of process %d", previous)
	}

	p := &pidFile{path: path, file: file, lock: lock}
	if err := p.write(os.Getpid()); err != nil {
		p.release()
		return nil, err
	}
	return p, nil
}

func (p *pidFile) write(pid int) error {
	if err := p.file.Truncate(0); err != nil {
		return fmt.Errorf("cannot truncate PID file: %w", err)
	}
	if _, err := p.file.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0); err != nil {
		return fmt.Errorf("cannot write PID: %w", err)
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("cannot sync PID file: %w", err)
	}
	return nil
}

// release removes the file before unlocking so a waiting instance never
// sees our pid
func (p *pidFile) release() {
	os.Remove(p.path)
	if p.lock {
		syscall.Flock(int(p.file.Fd()), syscall.LOCK_UN)
	}
	p.file.Close()
}

// recordedPID reads the pid stored at path and whether that process still
// exists. Missing or corrupted files report 0.
func recordedPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	// FindProcess never fails on Unix, signal 0 probes existence
	proc, _ := os.FindProcess(pid)
	err = proc.Signal(syscall.Signal(0))
	return pid, err == nil || errors.Is(err, syscall.EPERM)
}
