package readers

import (
	"fmt"
	"io"
)

// remoteObject adapts a ranged-read remote object to io.ReadSeekCloser.
// Seeking closes the current body and reopens it at the target offset
// through reopen; done releases the provider client, if any.
type remoteObject struct {
	body   io.ReadCloser
	size   int64
	offset int64
	reopen func(offset int64) (io.ReadCloser, error)
	done   func() error
}

func (r *remoteObject) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	r.offset += int64(n)
	return n, err
}

func (r *remoteObject) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.offset + offset
	case io.SeekEnd:
		target = r.size + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if target == r.offset {
		return target, nil
	}
	if target < 0 || target > r.size {
		return 0, fmt.Errorf("seek out of bounds: %d", target)
	}
	_ = r.body.Close()
	body, err := r.reopen(target)
	if err != nil {
		return 0, err
	}
	r.body = body
	r.offset = target
	return target, nil
}

func (r *remoteObject) Close() error {
	err := r.body.Close()
	if r.done != nil {
		if cerr := r.done(); err == nil {
			err = cerr
		}
	}
	return err
}
